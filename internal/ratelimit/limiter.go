// Package ratelimit implements per-client sliding-window limits over a
// bounded store.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Store records hits atomically per key. A hit is recorded only when fewer
// than limit hits fall inside (now-window, now].
type Store interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Decision, error)
}

type Limiter struct {
	store  Store
	name   string
	limit  int
	window time.Duration
	now    func() time.Time
}

type Option func(*Limiter)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

func NewLimiter(store Store, name string, limit int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		name:   name,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) Name() string {
	return l.name
}

func (l *Limiter) Limit() int {
	return l.limit
}

// Allow records one event for key if it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	if l.limit <= 0 || l.window <= 0 {
		return Decision{Allowed: true, Limit: l.limit}, nil
	}
	d, err := l.store.Hit(ctx, l.name+":"+key, l.limit, l.window, l.now())
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s failed: %w", l.name, err)
	}
	d.Limit = l.limit
	return d, nil
}
