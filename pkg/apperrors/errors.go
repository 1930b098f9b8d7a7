// Package apperrors defines the machine-readable error surface of the
// framework. Every externally visible error carries a Kind and a
// human-readable message; internal stack traces are never surfaced.
package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an error for programmatic handling by callers.
type Kind string

const (
	KindValidation              Kind = "ValidationError"
	KindPermissionDenied        Kind = "PermissionDenied"
	KindGuardViolation          Kind = "GuardViolation"
	KindUnknownAction           Kind = "UnknownAction"
	KindUnknownEntity           Kind = "UnknownEntity"
	KindUnresolvedPath          Kind = "UnresolvedPath"
	KindInvalidFilterValue      Kind = "InvalidFilterValue"
	KindAlreadyRegistered       Kind = "AlreadyRegistered"
	KindConflictingStateMachine Kind = "ConflictingStateMachine"
	KindDispatch                Kind = "DispatchError"
	KindCyclicPlan              Kind = "CyclicPlan"
	KindPlanExecutionFailed     Kind = "PlanExecutionFailed"
	KindSandbox                 Kind = "SandboxError"
)

// Error is the framework error type. It wraps an optional cause for
// errors.Is/As while keeping the surfaced message free of internals.
type Error struct {
	Kind    Kind
	Message string

	// Fields holds per-field detail for validation errors.
	Fields map[string]string

	// Details carries structured, JSON-safe payloads such as guard
	// violations or the failed step of a plan.
	Details any

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, strings.Join(parts, "; "))
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around a cause. The cause is
// reachable via errors.Unwrap but is not included in Error().
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// NewValidation creates a ValidationError with per-field messages.
func NewValidation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, or ""
// for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
