package ai

import (
	"errors"
	"fmt"
)

// ErrBackendUnavailable indicates a transport-level failure (connection refused, timeout).
var ErrBackendUnavailable = errors.New("model backend unavailable")

// ErrBackendError indicates the backend answered with a non-success status.
var ErrBackendError = errors.New("model backend error")

// ErrMalformedResponse indicates model output that is not parseable JSON after fence stripping.
var ErrMalformedResponse = errors.New("malformed model response")

// InvokeError wraps the last failure after the retry budget is exhausted.
type InvokeError struct {
	Attempts int
	Err      error
}

func (e *InvokeError) Error() string {
	return fmt.Sprintf("model invocation failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *InvokeError) Unwrap() error {
	return e.Err
}
