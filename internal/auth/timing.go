package auth

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"time"
)

// TimingConfig holds configuration for timing attack prevention
type TimingConfig struct {
	BaseDelay      time.Duration
	Jitter         time.Duration // random extra delay in [0, Jitter)
	DelayOnSuccess bool
}

// TimingDelay pads failed logins so "unknown email" and "wrong password"
// take about the same time.
type TimingDelay struct {
	config TimingConfig
}

func NewTimingDelay(config TimingConfig) *TimingDelay {
	return &TimingDelay{
		config: config,
	}
}

// cryptoRandDuration returns a secure random duration in [0, max)
func cryptoRandDuration(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}

	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return 0
	}

	return time.Duration(binary.BigEndian.Uint64(randomBytes) % uint64(max))
}

// target returns the padded duration for one attempt
func (td *TimingDelay) target(success bool) (time.Duration, bool) {
	if td == nil || (success && !td.config.DelayOnSuccess) {
		return 0, false
	}
	return td.config.BaseDelay + cryptoRandDuration(td.config.Jitter), true
}

// Wait sleeps for the configured delay, or returns early when ctx is done.
func (td *TimingDelay) Wait(ctx context.Context, success bool) {
	delay, ok := td.target(success)
	if !ok {
		return
	}
	sleepCtx(ctx, delay)
}

// WaitFrom pads the time elapsed since startTime up to the configured delay.
func (td *TimingDelay) WaitFrom(ctx context.Context, startTime time.Time, success bool) {
	delay, ok := td.target(success)
	if !ok {
		return
	}
	if elapsed := time.Since(startTime); elapsed < delay {
		sleepCtx(ctx, delay-elapsed)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
