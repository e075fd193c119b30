// Package ratelimit counts requests per client in fixed windows.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits or rejects a request for key
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

func decide(limit int, count int64, resetIn time.Duration) Decision {
	d := Decision{Limit: limit, Allowed: count <= int64(limit)}
	if d.Allowed {
		d.Remaining = limit - int(count)
		return d
	}
	if resetIn < time.Second {
		resetIn = time.Second
	}
	d.RetryAfter = resetIn
	return d
}

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryLimiter keeps fixed-window counters in process memory.
// Expired windows are dropped by Prune.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	period  time.Duration
	windows map[string]*window
	now     func() time.Time
}

// NewMemoryLimiter allows limit requests per key in every period
func NewMemoryLimiter(limit int, period time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		period:  period,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow counts one request for key. It never fails.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(l.period)}
		l.windows[key] = w
	}
	w.count++

	return decide(l.limit, w.count, w.resetAt.Sub(now)), nil
}

// Prune removes finished windows and returns how many were dropped
func (l *MemoryLimiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// Len reports how many clients have an open window
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
