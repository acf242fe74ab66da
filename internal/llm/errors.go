package llm

import (
	"errors"
	"fmt"
)

// ConnectionError covers provider failures that are plausibly transient:
// authentication and rate-limit rejections, network errors, and provider
// outages. Callers may retry these.
type ConnectionError struct {
	Provider string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("llm: %s connection error: %v", e.Provider, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// GenerationError covers failures in the content of a request or response:
// empty input, a malformed answer, or a result count that does not match the
// request. Retrying the same request will not help.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("llm: %s generation error: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Retryable reports whether err is worth retrying, which is exactly the
// ConnectionError class.
func Retryable(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}
