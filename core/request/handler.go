package request

import (
	"context"

	"github.com/dmitrymomot/messaging/core/scope"
)

// Handler processes one request type and produces its response.
type Handler[Req Request[R], R any] interface {
	Handle(ctx context.Context, req Req) (R, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc[Req Request[R], R any] func(ctx context.Context, req Req) (R, error)

// Handle calls f(ctx, req).
func (f HandlerFunc[Req, R]) Handle(ctx context.Context, req Req) (R, error) {
	return f(ctx, req)
}

// HandlerFactory builds a handler inside a resolution scope.
type HandlerFactory[Req Request[R], R any] func(*scope.Scope) Handler[Req, R]

// Register adds a handler factory for Req. The factory runs at most once per scope.
// It panics if Req already has a handler.
func Register[Req Request[R], R any](r *Registry, factory HandlerFactory[Req, R]) {
	sig := SignatureFor[Req, R]()
	key := handlerScopeKey{sig: sig}

	r.addHandler(handlerEntry{
		sig: sig,
		resolve: func(sc *scope.Scope) resolvedHandler {
			h := scope.Get(sc, key, func(sc *scope.Scope) Handler[Req, R] { return factory(sc) })
			return resolvedHandler{
				name: typeName(h),
				call: func(ctx context.Context, req any) (any, error) {
					typed, ok := req.(Req)
					if !ok {
						return nil, errUnexpectedRequest(sig, req)
					}
					return h.Handle(ctx, typed)
				},
			}
		},
	})
}

// RegisterHandler adds a handler instance shared by every scope.
func RegisterHandler[Req Request[R], R any](r *Registry, h Handler[Req, R]) {
	Register(r, func(*scope.Scope) Handler[Req, R] { return h })
}

// RegisterFunc adds a function handler for Req.
func RegisterFunc[Req Request[R], R any](r *Registry, fn func(ctx context.Context, req Req) (R, error)) {
	RegisterHandler[Req, R](r, HandlerFunc[Req, R](fn))
}

type handlerScopeKey struct {
	sig Signature
}

type handlerEntry struct {
	sig     Signature
	resolve func(*scope.Scope) resolvedHandler
}

type resolvedHandler struct {
	name string
	call func(ctx context.Context, req any) (any, error)
}
