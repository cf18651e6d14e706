package quotaguard

import (
	"fmt"
	"time"

	"github.com/yourusername/quotaguard/metrics"
	"github.com/yourusername/quotaguard/store"
)

// Option is a functional option for configuring a RateLimiter.
type Option func(*rateLimiter) error

// WithStore sets the counter store backing the limiter.
// Use a Redis store for distributed deployments; if not provided, an
// in-memory store is created (single-instance only). Stores passed in here
// are owned by the caller and not closed by the limiter.
func WithStore(s store.Store) Option {
	return func(rl *rateLimiter) error {
		if s == nil {
			return fmt.Errorf("%w: store cannot be nil", ErrInvalidConfig)
		}
		rl.counters = s
		return nil
	}
}

// WithConfig sets the configuration for the rate limiter.
func WithConfig(config *Config) Option {
	return func(rl *rateLimiter) error {
		if config == nil {
			return fmt.Errorf("%w: config cannot be nil", ErrInvalidConfig)
		}
		if err := config.Validate(); err != nil {
			return err
		}
		rl.config = config
		return nil
	}
}

// WithConfigFile loads configuration from a YAML file.
func WithConfigFile(path string) Option {
	return func(rl *rateLimiter) error {
		config, err := LoadConfigFromFile(path)
		if err != nil {
			return err
		}
		rl.config = config
		return nil
	}
}

// WithFallback sets the verdict used when the counter store is unavailable.
// Overrides the config file's fallback setting.
func WithFallback(mode FallbackMode) Option {
	return func(rl *rateLimiter) error {
		if err := mode.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		rl.fallback = mode
		rl.fallbackSet = true
		return nil
	}
}

// WithStoreTimeout bounds each counter store round-trip. A timed-out call is
// treated as a store failure and routed to the fallback policy.
// Default: 500ms.
func WithStoreTimeout(d time.Duration) Option {
	return func(rl *rateLimiter) error {
		if d <= 0 {
			return fmt.Errorf("%w: store timeout must be positive", ErrInvalidConfig)
		}
		rl.storeTimeout = d
		return nil
	}
}

// WithMetrics sets a shared metrics tracker, e.g. one also served by the
// api package's metrics handler.
func WithMetrics(m *metrics.Metrics) Option {
	return func(rl *rateLimiter) error {
		if m == nil {
			return fmt.Errorf("%w: metrics cannot be nil", ErrInvalidConfig)
		}
		rl.stats = m
		return nil
	}
}

// WithClock overrides the limiter's time source. Intended for tests that
// need to cross window boundaries without sleeping.
func WithClock(clock func() time.Time) Option {
	return func(rl *rateLimiter) error {
		if clock == nil {
			return fmt.Errorf("%w: clock cannot be nil", ErrInvalidConfig)
		}
		rl.clock = clock
		return nil
	}
}

// RouteExtractorFunc maps a request path to the resource key used for
// rate limiting. By default the path itself is used; this allows collapsing
// parameterized paths onto one resource.
type RouteExtractorFunc func(path string) string

// WithRouteExtractor sets the middleware's route-to-resource mapping.
func WithRouteExtractor(fn RouteExtractorFunc) Option {
	return func(rl *rateLimiter) error {
		if fn == nil {
			return fmt.Errorf("%w: route extractor cannot be nil", ErrInvalidConfig)
		}
		rl.routeExtractor = fn
		return nil
	}
}
