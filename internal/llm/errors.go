package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// InferenceError represents a transient capability failure: the provider is
// unavailable, rate limiting, or timing out. Retryable.
type InferenceError struct {
	Message string
	Cause   error
}

func (e *InferenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("inference error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("inference error: %s", e.Message)
}

func (e *InferenceError) Unwrap() error {
	return e.Cause
}

// classifyError wraps transient provider failures as *InferenceError and
// passes everything else through unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return &InferenceError{Message: "rate limited", Cause: err}
		case http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return &InferenceError{Message: "provider unavailable", Cause: err}
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &InferenceError{Message: "request timed out", Cause: err}
	}

	return err
}
