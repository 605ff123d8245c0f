package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrStoreUnavailable wraps every store failure, including timeouts.
// Callers fail closed on it.
var ErrStoreUnavailable = errors.New("ratelimit: store unavailable")

const defaultStoreTimeout = 500 * time.Millisecond

// Result is the decision for one request. Denial is a result, not an error.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt is when at least one token is available again. Zero when Allowed.
	ResetAt    time.Time
	RetryAfter time.Duration
}

type Limiter struct {
	store   Store
	timeout time.Duration
	clock   func() time.Time
}

type Option func(*Limiter)

// WithStoreTimeout bounds each store round trip.
func WithStoreTimeout(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.timeout = d
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(l *Limiter) { l.clock = clock }
}

func NewLimiter(store Store, opts ...Option) *Limiter {
	l := &Limiter{store: store, timeout: defaultStoreTimeout, clock: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CheckAndConsume takes one token from the bucket for key, creating it full on first use.
func (l *Limiter) CheckAndConsume(ctx context.Context, key string, maxRequests int, window time.Duration) (Result, error) {
	if maxRequests <= 0 || window <= 0 {
		return Result{}, fmt.Errorf("ratelimit: invalid quota %d per %s", maxRequests, window)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	now := l.clock()
	t, err := l.store.Take(ctx, key, maxRequests, window, now)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	res := Result{
		Allowed:   t.Allowed,
		Limit:     maxRequests,
		Remaining: int(math.Floor(t.Tokens)),
	}
	if !t.Allowed {
		res.Remaining = 0
		res.RetryAfter = t.Wait
		res.ResetAt = now.Add(t.Wait)
	}
	return res, nil
}
