package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultLimit  = 5
	DefaultWindow = time.Minute
)

var (
	ErrTooManyRequests = errors.New("too many requests")
	ErrUnavailable     = errors.New("rate limiter unavailable")
)

// Counter is an atomic fixed-window counter; the cache's Increment satisfies it.
type Counter interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Limiter allows at most limit hits per key inside a fixed window.
type Limiter struct {
	counter Counter
	limit   int64
	window  time.Duration
}

func New(counter Counter, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{counter: counter, limit: int64(limit), window: window}
}

// Allow records a hit for key. A counter failure rejects the request.
func (l *Limiter) Allow(ctx context.Context, key string) error {
	count, err := l.counter.Increment(ctx, key, l.window)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count > l.limit {
		return ErrTooManyRequests
	}
	return nil
}

func (l *Limiter) Window() time.Duration { return l.window }
