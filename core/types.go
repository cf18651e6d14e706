package core

import (
	"math"
	"time"
)

// Unlimited is the capacity sentinel for rules that never deny.
// A rule with this capacity counts traffic but admits everything.
const Unlimited int64 = math.MaxInt64

// Rule defines a fixed-window rate limit policy: at most Capacity requests
// are admitted per Window. Rules are immutable once constructed and are
// attached to a resource at wiring time, never mutated at runtime.
type Rule struct {
	Capacity int64         // Maximum admitted requests per window
	Window   time.Duration // Size of one fixed window
}

// NewRule validates and constructs a Rule.
// Capacity and Window must both be positive; a zero or negative value is a
// configuration error caught here, never at evaluation time.
func NewRule(capacity int64, window time.Duration) (Rule, error) {
	r := Rule{Capacity: capacity, Window: window}
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

// Validate checks that the rule's parameters are usable.
func (r Rule) Validate() error {
	if r.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	// The window key derivation floor-divides whole milliseconds, so a
	// window below 1ms cannot form a bucket.
	if r.Window < time.Millisecond {
		return ErrInvalidWindow
	}
	return nil
}

// IsUnlimited reports whether the rule uses the unrestricted sentinel.
func (r Rule) IsUnlimited() bool {
	return r.Capacity == Unlimited
}

// Admit applies the fixed-window tie-break to a post-increment count:
// the request that brings the count to exactly Capacity is admitted, the
// request that brings it to Capacity+1 is the first denied.
func (r Rule) Admit(count int64) bool {
	if r.IsUnlimited() {
		return true
	}
	return count <= r.Capacity
}

// Remaining returns how many requests are still admissible in the current
// window given a post-increment count. Never negative.
func (r Rule) Remaining(count int64) int64 {
	if r.IsUnlimited() {
		return Unlimited
	}
	if count >= r.Capacity {
		return 0
	}
	return r.Capacity - count
}
