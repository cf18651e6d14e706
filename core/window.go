package core

import (
	"strconv"
	"time"
)

// WindowKey derives the discrete time-bucket key for a resource.
// Two calls within the same bucket produce the same key; calls in adjacent
// buckets never collide. The derivation is pure: integer floor division of
// the Unix-millisecond timestamp by the window length.
func WindowKey(resource string, now time.Time, window time.Duration) string {
	bucket := now.UnixMilli() / window.Milliseconds()
	return resource + ":" + strconv.FormatInt(bucket, 10)
}

// WindowEnd returns the instant at which the bucket containing now closes.
// Callers use it to compute Retry-After hints for denied requests.
func WindowEnd(now time.Time, window time.Duration) time.Time {
	bucket := now.UnixMilli() / window.Milliseconds()
	return time.UnixMilli((bucket + 1) * window.Milliseconds())
}
