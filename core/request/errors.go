package request

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNilRequest is returned when Send receives a nil request.
	ErrNilRequest = errors.New("request cannot be nil")

	// ErrHandlerNotFound is returned when no handler is registered for a request type.
	ErrHandlerNotFound = errors.New("no handler registered for request")

	// ErrDuplicateHandler is the panic message prefix for a second handler on one request type.
	ErrDuplicateHandler = errors.New("handler already registered for request")

	// ErrUnexpectedResponse is returned when a pipeline produces a value of the wrong type.
	ErrUnexpectedResponse = errors.New("unexpected response type")

	// ErrUnexpectedRequest is returned when a handler receives a request of the wrong type.
	ErrUnexpectedRequest = errors.New("unexpected request type")
)

// HandlerNotFoundError names the request and response types that had no handler.
type HandlerNotFoundError struct {
	Request  reflect.Type
	Response reflect.Type
}

func (e *HandlerNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s returning %s", ErrHandlerNotFound, typeString(e.Request), typeString(e.Response))
}

func (e *HandlerNotFoundError) Unwrap() error { return ErrHandlerNotFound }

func typeString(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
