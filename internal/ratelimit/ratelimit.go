// Package ratelimit provides fixed-window request quotas keyed by caller.
//
// MemoryLimiter keeps its counters in the process, so every instance of
// the service counts separately: it deters casual abuse and nothing more.
// ValkeyLimiter keeps the counter in valkey and is shared by all
// instances pointed at the same server.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultMax    = 5
	DefaultWindow = 60 * time.Second
)

// Decision is the outcome of one Check.
type Decision struct {
	Allowed   bool          `json:"allowed"`
	Remaining int           `json:"remaining"`
	ResetIn   time.Duration `json:"reset_in"`
}

// Limiter counts a request against key and reports whether it may proceed.
type Limiter interface {
	Check(ctx context.Context, key string) (Decision, error)
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a process-local fixed-window limiter.
type MemoryLimiter struct {
	max     int
	window  time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]*window
}

// Option customises a MemoryLimiter.
type Option func(*MemoryLimiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *MemoryLimiter) { l.now = now }
}

func NewMemoryLimiter(max int, win time.Duration, opts ...Option) *MemoryLimiter {
	if max <= 0 {
		max = DefaultMax
	}
	if win <= 0 {
		win = DefaultWindow
	}
	l := &MemoryLimiter{
		max:     max,
		window:  win,
		now:     time.Now,
		entries: make(map[string]*window),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *MemoryLimiter) Check(_ context.Context, key string) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.entries[key]
	if !ok || !now.Before(w.resetAt) {
		l.entries[key] = &window{count: 1, resetAt: now.Add(l.window)}
		return Decision{Allowed: true, Remaining: l.max - 1, ResetIn: l.window}, nil
	}

	resetIn := w.resetAt.Sub(now)
	if w.count >= l.max {
		return Decision{Allowed: false, Remaining: 0, ResetIn: resetIn}, nil
	}

	w.count++
	return Decision{Allowed: true, Remaining: l.max - w.count, ResetIn: resetIn}, nil
}

// Sweep drops expired windows so the map does not grow without bound.
func (l *MemoryLimiter) Sweep() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, w := range l.entries {
		if !now.Before(w.resetAt) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until done is closed.
func (l *MemoryLimiter) StartSweeper(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Sweep()
			case <-done:
				return
			}
		}
	}()
}
