package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when the target status is not a listed successor
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrGuardFailed is returned when a structurally valid transition fails its business guard
	ErrGuardFailed = errors.New("transition guard failed")

	// ErrInvalidStatus is returned when a status tag is not part of its enumeration
	ErrInvalidStatus = errors.New("invalid status")
)

// GuardError carries the human-readable reason a guard rejected a transition.
// It unwraps to ErrGuardFailed. The rejected edge is reported by the caller.
type GuardError struct {
	Message string
}

func (e *GuardError) Error() string {
	return e.Message
}

// Unwrap returns ErrGuardFailed so callers can use errors.Is
func (e *GuardError) Unwrap() error {
	return ErrGuardFailed
}
