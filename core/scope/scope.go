// Package scope provides a resolution scope: a short-lived container that
// caches one instance per key and releases resources when closed.
//
// The dispatcher opens a scope per request and the publisher opens one per
// publish run, so handler and behavior factories share instances within one
// unit of work and never across units.
package scope

import (
	"context"
	"errors"
	"sync"
)

// Scope caches instances built during one unit of work.
// A Scope is safe for concurrent use.
type Scope struct {
	mu      sync.Mutex
	values  map[any]any
	closers []func() error
	closed  bool
}

// New returns an empty, open scope.
func New() *Scope {
	return &Scope{values: make(map[any]any)}
}

// Get returns the instance cached under key, building it with build on first use.
// build may resolve other instances from the same scope. When two goroutines
// race on the same key, the first stored instance wins and is returned to both.
func Get[T any](s *Scope, key any, build func(*Scope) T) T {
	if v, ok := s.Value(key); ok {
		if typed, ok := v.(T); ok {
			return typed
		}
	}

	built := build(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key]; ok {
		if typed, ok := v.(T); ok {
			return typed
		}
	}
	s.values[key] = built
	return built
}

// Set stores a value under key, replacing any previous value.
func (s *Scope) Set(key, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Value returns the value stored under key.
func (s *Scope) Value(key any) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// OnClose registers fn to run when the scope is closed.
// Closers run in reverse registration order.
func (s *Scope) OnClose(fn func() error) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, fn)
}

// Close runs every registered closer and drops cached values.
// It returns ErrClosed when called more than once.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	closers := s.closers
	s.closers = nil
	s.values = make(map[any]any)
	s.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ErrClosed is returned by Close on an already closed scope.
var ErrClosed = errors.New("scope already closed")

type scopeContextKey struct{}

// WithScope returns a context carrying s.
func WithScope(ctx context.Context, s *Scope) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if s == nil {
		return ctx
	}
	return context.WithValue(ctx, scopeContextKey{}, s)
}

// FromContext extracts a scope stored with WithScope.
func FromContext(ctx context.Context) (*Scope, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(scopeContextKey{}).(*Scope)
	return s, ok
}

// Ensure returns the scope carried by ctx, or opens a new one.
// The returned release function closes the scope only if Ensure opened it.
func Ensure(ctx context.Context) (context.Context, *Scope, func() error) {
	if s, ok := FromContext(ctx); ok {
		return ctx, s, func() error { return nil }
	}
	s := New()
	return WithScope(ctx, s), s, s.Close
}
