package quotaguard

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yourusername/quotaguard/core"
)

// Config holds the rate limiting configuration.
// Rules are attached to resources explicitly here, at wiring time; nothing is
// discovered or re-derived at call time.
type Config struct {
	// Defaults are applied to every resource without a specific rule
	Defaults RuleConfig `yaml:"defaults"`

	// Rules maps resource keys (e.g. route paths) to their rate limit rules
	// Example: "/api/login" -> strict rule, "/api/search" -> lenient rule
	Rules map[string]RuleConfig `yaml:"rules,omitempty"`

	// Fallback selects the verdict when the counter store is unavailable:
	// "fail-open" (default) or "fail-closed"
	Fallback FallbackMode `yaml:"fallback,omitempty"`

	// StoreTimeout bounds each counter store round-trip
	// Format: "500ms", "1s"
	StoreTimeout string `yaml:"store_timeout,omitempty"`
}

// RuleConfig defines the fixed-window parameters for a resource or default.
type RuleConfig struct {
	// Capacity is the maximum number of admitted requests per window.
	// Use -1 for the unrestricted sentinel (count but never deny).
	Capacity int64 `yaml:"capacity"`

	// Window is the fixed window size
	// Format: "1s", "500ms", "1m"
	Window string `yaml:"window"`

	// Enabled allows disabling rate limiting for specific resources
	Enabled bool `yaml:"enabled"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Defaults: RuleConfig{
			Capacity: 100,
			Window:   "1s",
			Enabled:  true,
		},
		Rules:        make(map[string]RuleConfig),
		Fallback:     FailOpen,
		StoreTimeout: "500ms",
	}
}

// LoadConfigFromFile loads configuration from a YAML file.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrInvalidConfig, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML: %v", ErrInvalidConfig, err)
	}

	// Apply defaults if not set
	if config.Fallback == "" {
		config.Fallback = FailOpen
	}
	if config.StoreTimeout == "" {
		config.StoreTimeout = "500ms"
	}
	if config.Rules == nil {
		config.Rules = make(map[string]RuleConfig)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Defaults.Validate(); err != nil {
		return fmt.Errorf("%w: invalid defaults: %v", ErrInvalidConfig, err)
	}

	for resource, rule := range c.Rules {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("%w: invalid rule for resource %s: %v", ErrInvalidConfig, resource, err)
		}
	}

	if c.Fallback != "" {
		if err := c.Fallback.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	if c.StoreTimeout != "" {
		d, err := time.ParseDuration(c.StoreTimeout)
		if err != nil {
			return fmt.Errorf("%w: invalid store_timeout: %v", ErrInvalidConfig, err)
		}
		if d <= 0 {
			return fmt.Errorf("%w: store_timeout must be positive", ErrInvalidConfig)
		}
	}

	return nil
}

// Validate checks if a RuleConfig is valid.
func (r *RuleConfig) Validate() error {
	_, err := r.ToRule()
	return err
}

// ToRule converts a RuleConfig into a validated core.Rule.
// A capacity of -1 maps to the unrestricted sentinel.
func (r *RuleConfig) ToRule() (core.Rule, error) {
	window, err := time.ParseDuration(r.Window)
	if err != nil {
		return core.Rule{}, fmt.Errorf("invalid window %q: %v", r.Window, err)
	}

	capacity := r.Capacity
	if capacity == -1 {
		capacity = core.Unlimited
	}

	return core.NewRule(capacity, window)
}

// SetRule sets a rate limit rule for a specific resource.
func (c *Config) SetRule(resource string, rule RuleConfig) error {
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Rules == nil {
		c.Rules = make(map[string]RuleConfig)
	}
	c.Rules[resource] = rule
	return nil
}
