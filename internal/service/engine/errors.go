package engine

import (
	"errors"
	"fmt"
)

// ErrNotFound means the analyzed subject does not exist in the content
// service. Never retried.
var ErrNotFound = errors.New("subject not found")

// ValidationError is a malformed request (unsupported content type, bad
// options). Never retried, surfaced immediately.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Message
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// AIServiceError wraps a failed AI client call. Retryable at the queue level.
type AIServiceError struct {
	Engine string
	Err    error
}

func (e *AIServiceError) Error() string {
	return fmt.Sprintf("ai service error in %s engine: %v", e.Engine, e.Err)
}

func (e *AIServiceError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the queue layer should schedule another
// attempt. Only AI service failures qualify.
func IsRetryable(err error) bool {
	var aiErr *AIServiceError
	return errors.As(err, &aiErr)
}
