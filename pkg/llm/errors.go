package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies oracle failures for retry decisions.
type ErrorType string

const (
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeConnection ErrorType = "connection"
	ErrorTypeModel      ErrorType = "model"
	ErrorTypeEndpoint   ErrorType = "endpoint"
	ErrorTypeResponse   ErrorType = "response"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error is a classified oracle error.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	parts := []string{string(e.Type)}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	parts = append(parts, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether the operation may be retried. Satisfies
// the retry package's RetryableError without importing it.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a classified oracle error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{Type: errType, Message: message, Retryable: retryable, Cause: cause}
}

// ClassifyError categorizes an arbitrary provider error. Unrecognized
// errors come back as retryable unknown, which biases transient faults
// toward a retry instead of a hard failure.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	lower := strings.ToLower(err.Error())
	statusCode := 0
	for _, code := range []int{400, 401, 403, 404, 429, 500, 502, 503, 504} {
		if strings.Contains(lower, fmt.Sprintf("%d", code)) {
			statusCode = code
			break
		}
	}

	classify := func(t ErrorType, msg string, retryable bool) *Error {
		e := NewError(t, msg, retryable, err)
		e.StatusCode = statusCode
		return e
	}

	switch {
	case strings.Contains(lower, "401") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key"):
		return classify(ErrorTypeAuth, "authentication failed", false)
	case strings.Contains(lower, "model") &&
		(strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist")):
		return classify(ErrorTypeModel, "model not found", false)
	case strings.Contains(lower, "404"):
		return classify(ErrorTypeEndpoint, "endpoint not found", false)
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate limit"):
		return classify(ErrorTypeRateLimit, "rate limited", true)
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "deadline exceeded"):
		return classify(ErrorTypeTimeout, "request timed out", true)
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "connection reset"):
		return classify(ErrorTypeConnection, "cannot reach endpoint", true)
	case statusCode >= 500:
		return classify(ErrorTypeEndpoint, "server error", true)
	default:
		return classify(ErrorTypeUnknown, "request failed", true)
	}
}
