package ratelimit

import (
	"errors"
	"math/rand/v2"
	"time"
)

const (
	DefaultWindow           = 60 * time.Second
	DefaultMaxRequests      = 500
	DefaultSweepProbability = 0.01
)

// Config is the fixed-window policy applied to every key.
type Config struct {
	Window           time.Duration
	MaxRequests      int
	SweepProbability float64 // chance per request of an inline sweep; 0 disables
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Key       string
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is the time left in the window, zero when admitted.
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, never negative.
func (d Decision) RetryAfterSeconds() int64 {
	if d.RetryAfter <= 0 {
		return 0
	}
	return int64((d.RetryAfter + time.Second - 1) / time.Second)
}

// Limiter admits at most MaxRequests per key in each fixed window.
type Limiter struct {
	cfg     Config
	store   Store
	now     func() time.Time
	random  func() float64
	onSweep func(removed int)
}

type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithRandom replaces the sweep coin, which must return values in [0, 1).
func WithRandom(random func() float64) Option {
	return func(l *Limiter) { l.random = random }
}

// WithSweepHook is called after every sweep with the number of removed keys.
func WithSweepHook(fn func(removed int)) Option {
	return func(l *Limiter) { l.onSweep = fn }
}

// New builds a limiter over store. Zero config fields take the defaults.
func New(cfg Config, store Store, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, errors.New("ratelimit: store is required")
	}
	if cfg.Window == 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = DefaultMaxRequests
	}
	if cfg.Window < 0 || cfg.MaxRequests < 0 {
		return nil, errors.New("ratelimit: window and max requests must be positive")
	}
	if cfg.SweepProbability < 0 || cfg.SweepProbability > 1 {
		return nil, errors.New("ratelimit: sweep probability must be within [0, 1]")
	}

	l := &Limiter{
		cfg:    cfg,
		store:  store,
		now:    time.Now,
		random: rand.Float64,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Allow counts one request for key and decides whether it may proceed.
func (l *Limiter) Allow(key string) Decision {
	now := l.now()

	if l.cfg.SweepProbability > 0 && l.random() < l.cfg.SweepProbability {
		l.sweepAt(now)
	}

	rec, ok := l.store.Hit(key, now, l.cfg.Window, l.cfg.MaxRequests)

	d := Decision{
		Allowed:   ok,
		Key:       key,
		Limit:     l.cfg.MaxRequests,
		Remaining: max(l.cfg.MaxRequests-rec.Count, 0),
		ResetAt:   rec.ResetAt,
	}
	if !ok {
		d.RetryAfter = max(rec.ResetAt.Sub(now), 0)
	}
	return d
}

// Sweep drops every expired record and returns how many were removed.
func (l *Limiter) Sweep() int {
	return l.sweepAt(l.now())
}

func (l *Limiter) sweepAt(now time.Time) int {
	removed := l.store.Sweep(now)
	if l.onSweep != nil {
		l.onSweep(removed)
	}
	return removed
}

// Config returns the effective policy.
func (l *Limiter) Config() Config {
	return l.cfg
}

// TrackedKeys reports how many keys the store currently holds.
func (l *Limiter) TrackedKeys() int {
	return l.store.Len()
}
