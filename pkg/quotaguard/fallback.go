package quotaguard

// FallbackMode governs the verdict when the counter store is unavailable.
// The default is FailOpen: a degraded store must never take down the
// protected operation, at the cost of not enforcing the limit while the
// outage lasts. Every fallback decision is recorded in metrics so operators
// can see when enforcement is effectively disabled.
type FallbackMode string

const (
	// FailOpen admits every request on store error.
	FailOpen FallbackMode = "fail-open"

	// FailClosed denies every request on store error.
	FailClosed FallbackMode = "fail-closed"
)

// Resolve maps a store error to an admit/reject verdict.
// The error itself does not influence the verdict today; it is part of the
// signature so a future mode can distinguish timeouts from hard failures.
func (m FallbackMode) Resolve(err error) bool {
	_ = err
	return m == FailOpen
}

// Validate checks that the mode is one of the two recognized values.
func (m FallbackMode) Validate() error {
	switch m {
	case FailOpen, FailClosed:
		return nil
	default:
		return ErrInvalidFallback
	}
}
