package request

import (
	"fmt"
	"reflect"
	"sync"
)

// Signature identifies a concrete (request type, response type) pair.
type Signature struct {
	Request  reflect.Type
	Response reflect.Type
}

// SignatureFor returns the signature of Req.
func SignatureFor[Req Request[R], R any]() Signature {
	return Signature{
		Request:  reflect.TypeFor[Req](),
		Response: reflect.TypeFor[R](),
	}
}

func (s Signature) String() string {
	return typeString(s.Request) + " => " + typeString(s.Response)
}

// Module registers a related set of handlers and behaviors.
type Module interface {
	Register(r *Registry)
}

// ModuleFunc adapts a function to the Module interface.
type ModuleFunc func(r *Registry)

// Register calls f(r).
func (f ModuleFunc) Register(r *Registry) { f(r) }

// Registry collects handlers and behaviors before a Dispatcher is built.
// It is safe for concurrent use, but registrations made after NewDispatcher
// are not seen by that dispatcher.
type Registry struct {
	mu        sync.RWMutex
	handlers  map[reflect.Type]handlerEntry
	behaviors []OpenBehavior
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[reflect.Type]handlerEntry),
	}
}

// Install registers every module in order.
func (r *Registry) Install(modules ...Module) {
	for _, m := range modules {
		if m != nil {
			m.Register(r)
		}
	}
}

// Use appends open behaviors to the pipeline. Behaviors run in the order they
// were added, the first one outermost.
func (r *Registry) Use(behaviors ...OpenBehavior) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range behaviors {
		if b != nil {
			r.behaviors = append(r.behaviors, b)
		}
	}
}

// HasHandler reports whether a handler is registered for the request type.
func (r *Registry) HasHandler(requestType reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[requestType]
	return ok
}

func (r *Registry) addHandler(e handlerEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[e.sig.Request]; exists {
		panic(fmt.Sprintf("%s: %s", ErrDuplicateHandler, e.sig))
	}
	r.handlers[e.sig.Request] = e
}

type snapshot struct {
	handlers  map[reflect.Type]handlerEntry
	behaviors []OpenBehavior
}

func (r *Registry) snapshot() snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handlers := make(map[reflect.Type]handlerEntry, len(r.handlers))
	for k, v := range r.handlers {
		handlers[k] = v
	}
	behaviors := make([]OpenBehavior, len(r.behaviors))
	copy(behaviors, r.behaviors)

	return snapshot{handlers: handlers, behaviors: behaviors}
}
