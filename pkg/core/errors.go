package core

import (
	"errors"
	"fmt"
)

// Validation errors
var (
	ErrMissingExecutable = errors.New("jobqueue: descriptor has no executable")
	ErrMissingRunPath    = errors.New("jobqueue: descriptor has no run path")
	ErrJobNameTooLong    = errors.New("jobqueue: job name too long")
	ErrQueueStarted      = errors.New("jobqueue: cannot add jobs after submissions were halted")
	ErrNoSuchJob         = errors.New("jobqueue: no job with that index")
)

// ErrUnexpectedStatus reports the fatal invariant violation where terminal
// handling observes a queue status outside the enumerated set. This must
// never occur in correct operation.
var ErrUnexpectedStatus = errors.New("jobqueue: unexpected job status after monitoring")

// CallbackError marks a validation-type failure raised by a done callback.
// It is the only callback error that is swallowed: the job is downgraded to
// failed and the exit callback still runs.
type CallbackError struct {
	Err error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("jobqueue: callback failed: %v", e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

// CallbackFailure wraps an error as a validation-type callback failure.
func CallbackFailure(err error) error {
	return &CallbackError{Err: err}
}
