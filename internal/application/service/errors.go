package service

import (
	"errors"
	"fmt"

	"github.com/garyjia/lotflow/internal/domain/workflow"
)

var (
	// ErrNotFound is returned when the addressed lot, request or notification does not exist
	ErrNotFound = errors.New("not found")

	// ErrStatusConflict is returned when the status changed between read and write
	ErrStatusConflict = errors.New("status changed concurrently")

	// ErrInvalidInput is returned for malformed create or record calls
	ErrInvalidInput = errors.New("invalid input")

	// ErrLotClosed is returned when recording evidence against a lot in a terminal status
	ErrLotClosed = errors.New("lot is closed")

	// ErrSourceNotApproved is returned when a pack lot is planned from a CM lot that is not Approved
	ErrSourceNotApproved = errors.New("source cm lot is not approved")
)

// TransitionError reports a transition refused by the workflow engine.
// It unwraps to workflow.ErrInvalidTransition or workflow.ErrGuardFailed.
type TransitionError struct {
	EntityType string
	EntityID   int64
	From       string
	To         string
	Result     workflow.Result
}

func (e *TransitionError) Error() string {
	return e.Result.Error
}

func (e *TransitionError) Unwrap() error {
	return e.Result.Err()
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
