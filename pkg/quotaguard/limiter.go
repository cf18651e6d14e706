package quotaguard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/yourusername/quotaguard/core"
	"github.com/yourusername/quotaguard/metrics"
	"github.com/yourusername/quotaguard/store"
)

// RateLimiter is the main interface for fixed-window rate limiting.
type RateLimiter interface {
	// Allow decides admit-or-reject for one request against the resource's
	// registered rule (or the default rule). Store failures never surface as
	// errors; they are absorbed into the verdict by the fallback policy.
	Allow(ctx context.Context, resource string) (*Decision, error)

	// AllowWithRule decides admit-or-reject against an explicit rule.
	// The rule must have been built with core.NewRule (or config validation);
	// it is not re-validated per call.
	AllowWithRule(ctx context.Context, resource string, rule core.Rule) (*Decision, error)

	// Middleware returns an HTTP middleware that applies rate limiting per
	// route and translates Deny into 429 Too Many Requests.
	Middleware(next http.Handler) http.Handler

	// Metrics exposes the limiter's verdict counters.
	Metrics() *metrics.Metrics

	// Close releases the counter store if the limiter created it.
	Close() error
}

// Decision contains the result of a rate limit evaluation.
type Decision struct {
	// Allowed indicates whether the request should be admitted
	Allowed bool

	// Resource is the resource key that was evaluated
	Resource string

	// Count is the post-increment request count in the current window.
	// Zero when the verdict came from the fallback policy.
	Count int64

	// Limit is the rule's capacity
	Limit int64

	// Remaining is the number of requests still admissible in this window
	Remaining int64

	// ResetAt is when the current window closes
	ResetAt time.Time

	// RetryAfter is how long to wait for a fresh window; 0 if Allowed
	RetryAfter time.Duration

	// Fallback is true when the counter store was unavailable and the
	// fallback policy produced the verdict
	Fallback bool
}

// compiledRule is a resource's rule resolved once at construction time.
type compiledRule struct {
	rule    core.Rule
	enabled bool
}

// rateLimiter is the concrete implementation of RateLimiter.
type rateLimiter struct {
	counters       store.Store
	ownsStore      bool
	config         *Config
	defaultRule    compiledRule
	rules          map[string]compiledRule
	fallback       FallbackMode
	fallbackSet    bool
	storeTimeout   time.Duration
	clock          func() time.Time
	routeExtractor func(string) string
	stats          *metrics.Metrics
}

// NewRateLimiter creates a new RateLimiter with the given options.
// If no options are provided, it uses an in-memory store and the default
// rule of 100 requests per second.
//
// Example:
//
//	limiter, err := NewRateLimiter(
//	    WithConfigFile("quotaguard.yaml"),
//	    WithStore(store.NewRedisStore(store.RedisConfig{Addr: "localhost:6379"})),
//	)
func NewRateLimiter(opts ...Option) (RateLimiter, error) {
	rl := &rateLimiter{
		config:         NewConfig(),
		clock:          time.Now,
		routeExtractor: func(path string) string { return path },
		stats:          metrics.New(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(rl); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	// Compile the rule table once; Allow never parses or validates per call.
	var err error
	rl.defaultRule.rule, err = rl.config.Defaults.ToRule()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid defaults: %v", ErrInvalidConfig, err)
	}
	rl.defaultRule.enabled = rl.config.Defaults.Enabled

	rl.rules = make(map[string]compiledRule, len(rl.config.Rules))
	for resource, rc := range rl.config.Rules {
		rule, err := rc.ToRule()
		if err != nil {
			return nil, fmt.Errorf("%w: invalid rule for resource %s: %v", ErrInvalidConfig, resource, err)
		}
		rl.rules[resource] = compiledRule{rule: rule, enabled: rc.Enabled}
	}

	if !rl.fallbackSet {
		rl.fallback = rl.config.Fallback
		if rl.fallback == "" {
			rl.fallback = FailOpen
		}
	}
	if err := rl.fallback.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if rl.storeTimeout == 0 {
		d, err := time.ParseDuration(rl.config.StoreTimeout)
		if err != nil || d <= 0 {
			d = 500 * time.Millisecond
		}
		rl.storeTimeout = d
	}

	// Create default store if not provided
	if rl.counters == nil {
		rl.counters = store.NewMemoryStore()
		rl.ownsStore = true
	}

	return rl, nil
}

// ruleFor resolves the rule registered for a resource, falling back to the
// default rule.
func (rl *rateLimiter) ruleFor(resource string) compiledRule {
	if r, ok := rl.rules[resource]; ok {
		return r
	}
	return rl.defaultRule
}

// Allow checks a request against the resource's registered rule.
func (rl *rateLimiter) Allow(ctx context.Context, resource string) (*Decision, error) {
	if resource == "" {
		return nil, ErrInvalidResource
	}

	cr := rl.ruleFor(resource)
	if !cr.enabled {
		return &Decision{
			Allowed:   true,
			Resource:  resource,
			Limit:     cr.rule.Capacity,
			Remaining: cr.rule.Capacity,
		}, nil
	}

	return rl.evaluate(ctx, resource, cr.rule)
}

// AllowWithRule checks a request against an explicit rule.
func (rl *rateLimiter) AllowWithRule(ctx context.Context, resource string, rule core.Rule) (*Decision, error) {
	if resource == "" {
		return nil, ErrInvalidResource
	}
	return rl.evaluate(ctx, resource, rule)
}

// evaluate is the decision algorithm: derive the window key for now, run the
// atomic increment with a TTL of twice the window, and compare the returned
// count to the capacity. The TTL headroom means a slow first access near a
// window boundary is still credited fully, and a crash that skips the
// expire-on-create step only delays cleanup.
func (rl *rateLimiter) evaluate(ctx context.Context, resource string, rule core.Rule) (*Decision, error) {
	now := rl.clock()
	windowKey := core.WindowKey(resource, now, rule.Window)

	storeCtx, cancel := context.WithTimeout(ctx, rl.storeTimeout)
	defer cancel()

	count, err := rl.counters.Increment(storeCtx, windowKey, 2*rule.Window)
	if err != nil {
		// The count is unknown, not zero. The fallback policy decides.
		allowed := rl.fallback.Resolve(err)
		rl.stats.RecordFallback(resource, allowed)
		return &Decision{
			Allowed:  allowed,
			Resource: resource,
			Limit:    rule.Capacity,
			Fallback: true,
		}, nil
	}

	allowed := rule.Admit(count)
	rl.stats.RecordVerdict(resource, allowed)

	decision := &Decision{
		Allowed:   allowed,
		Resource:  resource,
		Count:     count,
		Limit:     rule.Capacity,
		Remaining: rule.Remaining(count),
		ResetAt:   core.WindowEnd(now, rule.Window),
	}
	if !allowed {
		decision.RetryAfter = decision.ResetAt.Sub(now)
	}

	return decision, nil
}

// rateLimitExceededMessage matches the rejection body the service has always
// returned.
const rateLimitExceededMessage = "Request rate limit exceeded"

// Middleware wraps an http.Handler with rate limiting keyed by route.
// It sets standard rate limit headers and returns 429 when limits are exceeded.
//
// Headers:
//   - X-RateLimit-Limit: Maximum requests allowed in the window
//   - X-RateLimit-Remaining: Remaining requests in the current window
//   - X-RateLimit-Reset: Time when the window resets (Unix timestamp)
//   - Retry-After: Seconds to wait before retrying (when rate limited)
func (rl *rateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resource := rl.routeExtractor(r.URL.Path)

		decision, err := rl.Allow(r.Context(), resource)
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		// Fallback and exempt verdicts have no meaningful count; skip the
		// headers rather than report numbers the store never produced.
		if decision.Count > 0 && decision.Limit != core.Unlimited {
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))
		}

		if !decision.Allowed {
			if !decision.ResetAt.IsZero() {
				w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", decision.ResetAt.Unix()))
			}
			retryAfterSec := int64(decision.RetryAfter.Seconds())
			if retryAfterSec == 0 {
				retryAfterSec = 1
			}
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfterSec))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)

			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   "rate_limit_exceeded",
				"message": rateLimitExceededMessage,
			})
			return
		}

		// Request allowed - proceed to next handler
		next.ServeHTTP(w, r)
	})
}

// Metrics returns the limiter's verdict counters.
func (rl *rateLimiter) Metrics() *metrics.Metrics {
	return rl.stats
}

// Close releases the counter store if this limiter created it. Stores passed
// in via WithStore belong to the caller.
func (rl *rateLimiter) Close() error {
	if rl.ownsStore {
		return rl.counters.Close()
	}
	return nil
}
