// Package analysis executes configured prompts against the inference
// capability and maps structured results onto their target entities.
package analysis

import "fmt"

// MalformedOutputError indicates the capability returned data outside the
// expected shape. Not retryable without instruction changes; surfaced to a
// human rather than retried.
type MalformedOutputError struct {
	Category string
	Message  string
	Cause    error
}

func (e *MalformedOutputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed %s output: %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed %s output: %s", e.Category, e.Message)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Cause
}
