// Package ratelimit provides a fixed-window request limiter for external
// provider calls.
//
// Counters are kept in a bounded map keyed by provider name. Expired windows
// are evicted when their key is next touched; there is no background sweeper
// goroutine. Allow performs its increment-and-compare as one operation under
// the lock, so concurrent pipeline runs never over-admit.
package ratelimit

import (
	"sync"
	"time"
)

const (
	// defaultMaxKeys bounds the counter map. Provider names are a small
	// fixed set in practice; the bound guards against unbounded growth if a
	// caller keys by something dynamic.
	defaultMaxKeys = 1024
)

// window is one fixed-length counting window for a single key.
type window struct {
	start time.Time
	count int
}

// Limiter is a fixed-window rate limiter. It is safe for concurrent use.
type Limiter struct {
	limit   int
	period  time.Duration
	maxKeys int
	now     func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// Option is a functional option for configuring a Limiter.
type Option func(*Limiter)

// WithMaxKeys overrides the maximum number of tracked keys. When the map is
// full, Allow admits unknown keys without counting them rather than blocking
// the pipeline.
func WithMaxKeys(n int) Option {
	return func(l *Limiter) {
		l.maxKeys = n
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a Limiter admitting at most limit calls per key per period.
// A limit of zero or less disables limiting; Allow always returns true.
func New(limit int, period time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		limit:   limit,
		period:  period,
		maxKeys: defaultMaxKeys,
		now:     time.Now,
		windows: make(map[string]*window),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Allow reports whether one more call for key fits in the current window and
// counts it if so. A denied call is not counted.
func (l *Limiter) Allow(key string) bool {
	if l.limit <= 0 {
		return true
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.evictExpired(now)

	w, ok := l.windows[key]
	if !ok {
		if len(l.windows) >= l.maxKeys {
			// Map is full of live windows. Admit rather than stall.
			return true
		}
		w = &window{start: now}
		l.windows[key] = w
	} else if now.Sub(w.start) >= l.period {
		w.start = now
		w.count = 0
	}

	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many calls for key are left in its current window.
func (l *Limiter) Remaining(key string) int {
	if l.limit <= 0 {
		return int(^uint(0) >> 1)
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.period {
		return l.limit
	}
	if w.count >= l.limit {
		return 0
	}
	return l.limit - w.count
}

// evictExpired drops windows whose period has elapsed. Must be called with
// l.mu held. Runs on every Allow; the map is small so a full scan is fine.
func (l *Limiter) evictExpired(now time.Time) {
	for k, w := range l.windows {
		if now.Sub(w.start) >= l.period {
			delete(l.windows, k)
		}
	}
}
