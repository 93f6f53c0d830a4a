package request

import (
	"context"

	"github.com/dmitrymomot/messaging/core/scope"
)

// Next continues the pipeline with the next behavior or the handler.
type Next func(ctx context.Context) (any, error)

// Behavior wraps request handling. Implementations call next to continue the
// pipeline, or return without calling it to short-circuit.
type Behavior interface {
	Handle(ctx context.Context, req any, next Next) (any, error)
}

// BehaviorFunc adapts a function to the Behavior interface.
type BehaviorFunc func(ctx context.Context, req any, next Next) (any, error)

// Handle calls f(ctx, req, next).
func (f BehaviorFunc) Handle(ctx context.Context, req any, next Next) (any, error) {
	return f(ctx, req, next)
}

// BehaviorConstructor builds a behavior inside a resolution scope.
type BehaviorConstructor func(*scope.Scope) Behavior

// OpenBehavior is a behavior registered for every request signature.
// It is called once per signature when the dispatch plan is built and returns
// the constructor to use for that signature, or nil when it does not apply.
type OpenBehavior func(sig Signature) BehaviorConstructor

// Always returns an OpenBehavior that applies b to every signature.
func Always(b Behavior) OpenBehavior {
	return func(Signature) BehaviorConstructor {
		return func(*scope.Scope) Behavior { return b }
	}
}

// TypedBehavior wraps handling of a single request type.
type TypedBehavior[Req Request[R], R any] interface {
	Handle(ctx context.Context, req Req, next func(context.Context) (R, error)) (R, error)
}

// TypedBehaviorFunc adapts a function to the TypedBehavior interface.
type TypedBehaviorFunc[Req Request[R], R any] func(ctx context.Context, req Req, next func(context.Context) (R, error)) (R, error)

// Handle calls f(ctx, req, next).
func (f TypedBehaviorFunc[Req, R]) Handle(ctx context.Context, req Req, next func(context.Context) (R, error)) (R, error) {
	return f(ctx, req, next)
}

// UseFor appends a behavior that applies only to Req.
func UseFor[Req Request[R], R any](r *Registry, ctor func(*scope.Scope) TypedBehavior[Req, R]) {
	want := SignatureFor[Req, R]()
	r.Use(func(sig Signature) BehaviorConstructor {
		if sig != want {
			return nil
		}
		return func(sc *scope.Scope) Behavior {
			return typedBehavior[Req, R]{inner: ctor(sc)}
		}
	})
}

type typedBehavior[Req Request[R], R any] struct {
	inner TypedBehavior[Req, R]
}

func (b typedBehavior[Req, R]) Handle(ctx context.Context, req any, next Next) (any, error) {
	typed, ok := req.(Req)
	if !ok {
		return nil, errUnexpectedRequest(SignatureFor[Req, R](), req)
	}
	return b.inner.Handle(ctx, typed, func(ctx context.Context) (R, error) {
		out, err := next(ctx)
		resp, _ := out.(R)
		return resp, err
	})
}

// Chain folds behaviors around terminal. The first behavior in the slice is
// the outermost and runs first.
func Chain(behaviors []Behavior, req any, terminal Next) Next {
	next := terminal
	// Reverse order required: wrapping innermost first makes it execute last
	for i := len(behaviors) - 1; i >= 0; i-- {
		b, inner := behaviors[i], next
		next = func(ctx context.Context) (any, error) {
			return b.Handle(ctx, req, inner)
		}
	}
	return next
}
