package request

import (
	"github.com/dmitrymomot/messaging/core/pagination"
	"github.com/dmitrymomot/messaging/core/result"
)

// Request is implemented by every routable message. The response type R is
// fixed by embedding one of Command, CreateCommand, Query, PaginatedQuery or
// Returns into the request struct.
type Request[R any] interface {
	responseType() R
}

// Command is a request that changes state and reports only success or failure.
type Command struct{}

func (Command) responseType() result.Result { return result.Result{} }

// CreateCommand is a command that returns the identifier or value it created.
type CreateCommand[T any] struct{}

func (CreateCommand[T]) responseType() result.Of[T] { return result.Of[T]{} }

// Query is a read-only request returning a value of type T.
type Query[T any] struct{}

func (Query[T]) responseType() result.Of[T] { return result.Of[T]{} }

// PaginatedQuery is a query returning one page of T.
type PaginatedQuery[T any] struct {
	Paging pagination.Paging `json:"paging"`
}

func (PaginatedQuery[T]) responseType() result.Of[pagination.Page[T]] {
	return result.Of[pagination.Page[T]]{}
}

// Returns marks a request whose handler returns a bare R without an outcome wrapper.
type Returns[R any] struct{}

func (Returns[R]) responseType() R {
	var zero R
	return zero
}
