package quotaguard

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidResource is returned when the resource key is empty
	ErrInvalidResource = errors.New("resource key cannot be empty")

	// ErrInvalidFallback is returned for an unrecognized fallback mode
	ErrInvalidFallback = errors.New("fallback mode must be fail-open or fail-closed")
)
