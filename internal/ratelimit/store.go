package ratelimit

import (
	"context"
	"time"
)

// Take is the outcome of one consume attempt.
type Take struct {
	Allowed bool
	// Tokens left in the bucket after this attempt.
	Tokens float64
	// Wait until one token is available; zero when Allowed.
	Wait time.Duration
}

// Store holds bucket state. Take must refill and consume atomically per key:
// concurrent callers never drive a bucket below zero.
type Store interface {
	Take(ctx context.Context, key string, capacity int, window time.Duration, now time.Time) (Take, error)
}
