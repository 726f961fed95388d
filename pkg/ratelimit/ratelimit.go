// Package ratelimit provides a per-key token bucket limiter.
package ratelimit

import (
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds limiter settings.
type Config struct {
	// RequestsPerMinute is the sustained refill rate per key.
	RequestsPerMinute int

	// Burst is the bucket size; a fresh key may spend this many at once.
	Burst int

	// IdleTTL drops buckets that have not been touched for this long.
	IdleTTL time.Duration

	// Exempt keys are never limited.
	Exempt map[string]bool
}

// DefaultConfig returns defaults suited to interactive API traffic.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 120,
		Burst:             20,
		IdleTTL:           10 * time.Minute,
	}
}

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// ══════════════════════════════════════════════════════════════════════════════
// LIMITER
// ══════════════════════════════════════════════════════════════════════════════

// Limiter keeps one bucket per key. Idle buckets are swept lazily from
// Allow, so there is no background goroutine to stop.
type Limiter struct {
	cfg        Config
	refillRate float64 // tokens per second
	now        func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithNow replaces the time source.
func WithNow(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a limiter. Non-positive rate or burst fall back to defaults.
func New(cfg Config, opts ...Option) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = def.IdleTTL
	}
	l := &Limiter{
		cfg:        cfg,
		refillRate: float64(cfg.RequestsPerMinute) / 60.0,
		now:        time.Now,
		buckets:    make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastSweep = l.now()
	return l
}

// Allow spends one token for key.
func (l *Limiter) Allow(key string) Result {
	if l.cfg.Exempt[key] {
		return Result{Allowed: true, Remaining: l.cfg.Burst}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.cfg.Burst), lastRefill: now}
		l.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastRefill).Seconds() * l.refillRate
	if limit := float64(l.cfg.Burst); b.tokens > limit {
		b.tokens = limit
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return Result{Allowed: true, Remaining: int(b.tokens)}
	}

	deficit := 1 - b.tokens
	wait := time.Duration(deficit / l.refillRate * float64(time.Second))
	return Result{Allowed: false, RetryAfter: wait}
}

// Reset forgets the state of key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// sweep must be called with mu held.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.cfg.IdleTTL {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.lastRefill) > l.cfg.IdleTTL {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}
