package core

import "errors"

var (
	// ErrInvalidCapacity is returned when a rule's capacity is zero or negative
	ErrInvalidCapacity = errors.New("rule capacity must be positive")

	// ErrInvalidWindow is returned when a rule's window is zero or negative
	ErrInvalidWindow = errors.New("rule window must be positive")
)
