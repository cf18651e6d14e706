package quotaguard

import (
	qg "github.com/yourusername/quotaguard/pkg/quotaguard"
)

// Re-export main types for convenience
type (
	Config       = qg.Config
	RuleConfig   = qg.RuleConfig
	RateLimiter  = qg.RateLimiter
	Decision     = qg.Decision
	FallbackMode = qg.FallbackMode
	Option       = qg.Option
)

const (
	FailOpen   = qg.FailOpen
	FailClosed = qg.FailClosed
)

// NewRateLimiter creates a new rate limiter
var NewRateLimiter = qg.NewRateLimiter

// NewConfig creates a config with sensible defaults
var NewConfig = qg.NewConfig

// LoadConfigFromFile loads configuration from a YAML file
var LoadConfigFromFile = qg.LoadConfigFromFile
