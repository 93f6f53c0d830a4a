package notification

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/dmitrymomot/messaging/core/scope"
)

// Handler reacts to one notification type. A returned error marks the
// delivery as failed with the error's message.
type Handler[N Notification] interface {
	Handle(ctx context.Context, n N) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc[N Notification] func(ctx context.Context, n N) error

// Handle calls f(ctx, n).
func (f HandlerFunc[N]) Handle(ctx context.Context, n N) error {
	return f(ctx, n)
}

// Module registers a related set of notification handlers.
type Module interface {
	Register(r *Registry)
}

// ModuleFunc adapts a function to the Module interface.
type ModuleFunc func(r *Registry)

// Register calls f(r).
func (f ModuleFunc) Register(r *Registry) { f(r) }

// Registry maps notification types to their handlers.
// Handlers for one type run in subscription order.
type Registry struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]subscription
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[reflect.Type][]subscription)}
}

// Install registers every module in order.
func (r *Registry) Install(modules ...Module) {
	for _, m := range modules {
		if m != nil {
			m.Register(r)
		}
	}
}

// Subscribe adds a handler factory for N. The factory runs at most once per
// publish run.
func Subscribe[N Notification](r *Registry, factory func(*scope.Scope) Handler[N]) {
	t := reflect.TypeFor[N]()

	r.mu.Lock()
	defer r.mu.Unlock()

	key := subscriptionKey{t: t, index: len(r.handlers[t])}
	r.handlers[t] = append(r.handlers[t], subscription{
		resolve: func(sc *scope.Scope) resolvedSubscription {
			h := scope.Get(sc, key, factory)
			return resolvedSubscription{
				name: fmt.Sprintf("%T", h),
				call: func(ctx context.Context, n Notification) error {
					typed, ok := n.(N)
					if !ok {
						return fmt.Errorf("%w: %T is not %s", ErrInvalidPayload, n, t)
					}
					return h.Handle(ctx, typed)
				},
			}
		},
	})
}

// SubscribeHandler adds a handler instance shared by every publish run.
func SubscribeHandler[N Notification](r *Registry, h Handler[N]) {
	Subscribe(r, func(*scope.Scope) Handler[N] { return h })
}

// SubscribeFunc adds a function handler for N.
func SubscribeFunc[N Notification](r *Registry, fn func(ctx context.Context, n N) error) {
	SubscribeHandler[N](r, HandlerFunc[N](fn))
}

// HandlerCount returns how many handlers are subscribed to the type of n.
func (r *Registry) HandlerCount(n Notification) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[reflect.TypeOf(n)])
}

func (r *Registry) subscriptions(t reflect.Type) []subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subs := r.handlers[t]
	out := make([]subscription, len(subs))
	copy(out, subs)
	return out
}

type subscriptionKey struct {
	t     reflect.Type
	index int
}

type subscription struct {
	resolve func(*scope.Scope) resolvedSubscription
}

type resolvedSubscription struct {
	name string
	call func(ctx context.Context, n Notification) error
}
