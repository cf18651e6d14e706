// Package quotaguard provides distributed fixed-window rate limiting for Go
// applications.
//
// QuotaGuard divides time into equal non-overlapping windows and counts
// requests per resource per window in a shared store. Many stateless server
// instances pointed at the same store enforce one global limit, because the
// only shared mutable state is the store's atomic counter.
//
// # Quick Start
//
// Basic usage with the in-memory store (single instance):
//
//	limiter, err := quotaguard.NewRateLimiter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer limiter.Close()
//
//	decision, err := limiter.Allow(ctx, "/hello")
//	if !decision.Allowed {
//	    fmt.Printf("Rate limited. Retry after %v\n", decision.RetryAfter)
//	}
//
// # Distributed limiting
//
// Point every instance at the same Redis and the count is exact across the
// fleet:
//
//	limiter, err := quotaguard.NewRateLimiter(
//	    quotaguard.WithStore(store.NewRedisStore(store.RedisConfig{
//	        Addr: "redis:6379",
//	    })),
//	)
//
// # HTTP Middleware
//
// Use as HTTP middleware for automatic per-route rate limiting:
//
//	http.Handle("/api/", limiter.Middleware(yourHandler))
//
// The middleware sets standard rate limit headers and answers 429 Too Many
// Requests when a limit is exceeded:
//   - X-RateLimit-Limit: Maximum requests allowed in the window
//   - X-RateLimit-Remaining: Remaining requests in the current window
//   - X-RateLimit-Reset: Unix timestamp when the window resets
//   - Retry-After: Seconds to wait before retrying (when rate limited)
//
// # Configuration
//
// Rules are registered explicitly per resource at construction time, from
// code or from a YAML file:
//
//	limiter, err := quotaguard.NewRateLimiter(
//	    quotaguard.WithConfigFile("quotaguard.yaml"),
//	)
//
// Example YAML configuration:
//
//	defaults:
//	  capacity: 100
//	  window: 1s
//	  enabled: true
//
//	rules:
//	  "/api/login":
//	    capacity: 5
//	    window: 1m
//	    enabled: true
//
//	fallback: fail-open
//	store_timeout: 500ms
//
// A capacity of -1 is the unrestricted sentinel: the resource is counted but
// never denied.
//
// # Fixed-window semantics
//
// Each request derives a window key from the resource and the current time
// bucket, then atomically increments that key's counter in the store. The
// request that brings the count to exactly the capacity is admitted; the next
// one is the first denied. Counts never carry over between windows: entries
// expire on their own TTL (twice the window), and a resource denied in one
// window admits again in the next.
//
// Under true concurrency, ordering between callers is not guaranteed; only
// the total count is exact. With capacity C, exactly min(N, C) of N
// concurrent requests in one window are admitted.
//
// # Failure policy
//
// Store errors and timeouts never propagate to the caller. The fallback
// policy (fail-open by default, fail-closed optional) turns them into a
// verdict, and every fallback verdict is counted in metrics so a degraded
// store is visible to operators.
//
// # Testing
//
// Run tests with coverage and race detection:
//
//	go test -v -race -cover ./...
//
// The Redis integration tests skip themselves when no local Redis is
// available, or with -short.
package quotaguard
