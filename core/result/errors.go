package result

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknown stands in for a failure created without a cause.
var ErrUnknown = errors.New("unknown failure")

// ValidationFailure is a single rule violation on a request field.
type ValidationFailure struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f ValidationFailure) String() string {
	if f.Field == "" {
		return f.Message
	}
	return f.Field + ": " + f.Message
}

// ValidationError aggregates every failure reported by the validators of a request.
// Order is preserved and duplicates are kept.
type ValidationError struct {
	Failures []ValidationFailure `json:"failures"`
}

// NewValidationError builds a ValidationError from the given failures.
func NewValidationError(failures ...ValidationFailure) *ValidationError {
	return &ValidationError{Failures: failures}
}

func (e *ValidationError) Error() string {
	if len(e.Failures) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the failing field names in report order.
func (e *ValidationError) Fields() []string {
	fields := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		fields[i] = f.Field
	}
	return fields
}

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Type   string
	Search any
}

func (e *NotFoundError) Error() string {
	if e.Search == nil {
		return e.Type + " not found"
	}
	return fmt.Sprintf("%s not found: %v", e.Type, e.Search)
}

// UnexpectedError wraps an error nobody planned for, such as a handler panic
// or an infrastructure failure.
type UnexpectedError struct {
	Err     error
	Details string
}

// NewUnexpectedError wraps err. A nil err yields ErrUnknown as the cause.
func NewUnexpectedError(err error) *UnexpectedError {
	if err == nil {
		err = ErrUnknown
	}
	return &UnexpectedError{Err: err}
}

func (e *UnexpectedError) Error() string {
	return "An unexpected error occurred: " + e.Err.Error()
}

func (e *UnexpectedError) Unwrap() error { return e.Err }

// DomainError is a business rule violation reported by a handler.
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string { return e.Message }
