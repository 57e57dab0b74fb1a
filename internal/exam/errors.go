package exam

import (
	"errors"
	"fmt"
)

var (
	ErrSessionFinished   = errors.New("test session already finished")
	ErrSessionClosed     = errors.New("test session closed")
	ErrInvalidTransition = errors.New("operation not allowed in current state")
	ErrUnknownQuestion   = errors.New("unknown question")
	ErrUnknownOption     = errors.New("option does not belong to question")
)

// FetchError reports that the question set for a subtopic could not be
// retrieved. The session stays retryable.
type FetchError struct {
	Subtopic string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch questions for %q: %v", e.Subtopic, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
