package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper drops expired rate limit records
type Sweeper interface {
	Sweep() int
	TrackedKeys() int
}

// CleanupManager periodically sweeps the rate limiter so idle clients do not
// stay in memory until the next unlucky request triggers an inline sweep.
type CleanupManager struct {
	sweeper  Sweeper
	logger   *slog.Logger
	interval time.Duration
	onSweep  func(trackedKeys int)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCleanupManager creates a new cleanup manager. onSweep may be nil.
func NewCleanupManager(sweeper Sweeper, logger *slog.Logger, interval time.Duration, onSweep func(trackedKeys int)) *CleanupManager {
	return &CleanupManager{
		sweeper:  sweeper,
		logger:   logger,
		interval: interval,
		onSweep:  onSweep,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the periodic sweep until Stop is called or ctx is done
func (cm *CleanupManager) Start(ctx context.Context) {
	if cm.interval <= 0 {
		cm.logger.Info("periodic rate limit sweep disabled")
		return
	}

	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cm.RunOnce()
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// RunOnce sweeps immediately
func (cm *CleanupManager) RunOnce() int {
	removed := cm.sweeper.Sweep()
	tracked := cm.sweeper.TrackedKeys()
	if cm.onSweep != nil {
		cm.onSweep(tracked)
	}

	if removed > 0 {
		cm.logger.Debug("rate limit sweep completed",
			slog.Int("removed", removed),
			slog.Int("tracked", tracked))
	}
	return removed
}

// Stop signals the cleanup manager to stop. Safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
