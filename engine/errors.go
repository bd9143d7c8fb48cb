package engine

import (
	"errors"
	"fmt"
)

// ErrCancelled reports cooperative cancellation. It is a normal outcome,
// not a fault: the engine never retries it and never logs it at error
// level, and callers should branch on errors.Is.
var ErrCancelled = errors.New("engine: run cancelled")

// StepError wraps the failure of one plan request with enough position
// information to resume.
type StepError struct {
	Index  int
	Method string
	Path   string
	Cause  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("engine: request %d (%s %s): %v", e.Index, e.Method, e.Path, e.Cause)
}

func (e *StepError) Unwrap() error { return e.Cause }
