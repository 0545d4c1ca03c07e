// Package ratelimit implements a fixed-window request counter keyed by an
// arbitrary actor key (client IP, sender id). The counter store is pluggable:
// MemoryStore serves a single instance, RedisStore shares counters across
// instances.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Store increments the counter for key and returns the new value. The counter
// must expire no earlier than ttl after it was created.
type Store interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type Limiter struct {
	store  Store
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

type Option func(*Limiter)

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

func New(store Store, prefix string, limit int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow counts one hit for key in the current window and reports whether the
// hit is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return true, nil
	}
	bucket := l.now().UnixNano() / int64(l.window)
	n, err := l.store.Incr(ctx, fmt.Sprintf("%s:%s:%d", l.prefix, key, bucket), l.window)
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", l.prefix, err)
	}
	return n <= int64(l.limit), nil
}
