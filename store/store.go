package store

import (
	"context"
	"errors"
	"time"
)

// Store is the shared counter abstraction behind the limiter.
// This allows for different backends (Redis for distributed deployments,
// in-memory for single-instance ones).
type Store interface {
	// Increment atomically increments the counter for windowKey and returns
	// the post-increment value. The call that creates the entry also arms its
	// expiry with the given ttl. Concurrent callers never observe the same
	// returned value for distinct calls.
	//
	// Any failure is reported as an error wrapping ErrUnavailable; a failed
	// call means the count is unknown, not zero.
	Increment(ctx context.Context, windowKey string, ttl time.Duration) (int64, error)

	// Close releases any resources held by the store.
	Close() error
}

// ErrUnavailable is returned when the backing store cannot be reached or the
// operation timed out. Callers route it to their fallback policy instead of
// propagating it.
var ErrUnavailable = errors.New("counter store unavailable")
