package request

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/messaging/core/logger"
	"github.com/dmitrymomot/messaging/core/scope"
)

// Dispatcher routes requests to their handlers through the behavior pipeline.
// It is safe for concurrent use.
type Dispatcher struct {
	handlers  map[reflect.Type]handlerEntry
	behaviors []OpenBehavior
	logger    *slog.Logger

	plans      sync.Map // reflect.Type -> *plan
	planGroup  singleflight.Group
	plansBuilt atomic.Int64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher freezes the handlers and behaviors of r into a dispatcher.
//
// Example:
//
//	reg := request.NewRegistry()
//	reg.Install(users.Module())
//	d := request.NewDispatcher(reg, request.WithLogger(logger))
func NewDispatcher(r *Registry, opts ...Option) *Dispatcher {
	snap := r.snapshot()
	d := &Dispatcher{
		handlers:  snap.handlers,
		behaviors: snap.behaviors,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Send routes req to its handler and returns the handler's response.
// R is inferred from the marker embedded in the request type.
//
// Errors returned by the handler or by a behavior are returned unchanged.
// A request type without a handler yields *HandlerNotFoundError.
func Send[R any](ctx context.Context, d *Dispatcher, req Request[R]) (R, error) {
	var zero R
	if isNil(req) {
		return zero, ErrNilRequest
	}

	responseType := reflect.TypeFor[R]()
	p, err := d.plan(reflect.TypeOf(req), responseType)
	if err != nil {
		return zero, err
	}

	ctx, sc, release := scope.Ensure(ctx)
	defer func() {
		if cerr := release(); cerr != nil {
			d.logger.WarnContext(ctx, "failed to close request scope",
				logger.Request(p.sig.Request.String()),
				logger.Error(cerr))
		}
	}()

	out, err := p.execute(ctx, sc, req, d.logger)
	if out == nil {
		return zero, err
	}
	resp, ok := out.(R)
	if !ok {
		if err != nil {
			return zero, err
		}
		return zero, fmt.Errorf("%w: %s produced %T, want %s", ErrUnexpectedResponse, p.sig.Request, out, responseType)
	}
	return resp, err
}

// PlanCount returns how many dispatch plans have been built.
func (d *Dispatcher) PlanCount() int {
	return int(d.plansBuilt.Load())
}

// plan returns the cached dispatch plan for requestType, building it on first use.
// Failed lookups are not cached.
func (d *Dispatcher) plan(requestType, responseType reflect.Type) (*plan, error) {
	if p, ok := d.plans.Load(requestType); ok {
		return p.(*plan).check(responseType)
	}

	v, err, _ := d.planGroup.Do(requestType.String(), func() (any, error) {
		return d.buildAndStore(requestType, responseType)
	})
	if err != nil {
		return nil, err
	}

	p := v.(*plan)
	if p.sig.Request != requestType {
		// Distinct types can share a printed name across packages.
		p, err = d.buildAndStore(requestType, responseType)
		if err != nil {
			return nil, err
		}
	}
	return p.check(responseType)
}

func (d *Dispatcher) buildAndStore(requestType, responseType reflect.Type) (*plan, error) {
	if p, ok := d.plans.Load(requestType); ok {
		return p.(*plan), nil
	}

	p, err := d.buildPlan(requestType, responseType)
	if err != nil {
		return nil, err
	}

	actual, loaded := d.plans.LoadOrStore(requestType, p)
	if !loaded {
		d.plansBuilt.Add(1)
	}
	return actual.(*plan), nil
}

func (d *Dispatcher) buildPlan(requestType, responseType reflect.Type) (*plan, error) {
	entry, ok := d.handlers[requestType]
	if !ok || entry.sig.Response != responseType {
		return nil, &HandlerNotFoundError{Request: requestType, Response: responseType}
	}

	p := &plan{sig: entry.sig, handler: entry}
	for _, open := range d.behaviors {
		if ctor := open(entry.sig); ctor != nil {
			p.behaviors = append(p.behaviors, ctor)
		}
	}

	d.logger.Debug("dispatch plan built",
		slog.String("signature", entry.sig.String()),
		slog.Int("behaviors", len(p.behaviors)))

	return p, nil
}

// plan is the resolved routing for one request type.
type plan struct {
	sig       Signature
	handler   handlerEntry
	behaviors []BehaviorConstructor
}

func (p *plan) check(responseType reflect.Type) (*plan, error) {
	if p.sig.Response != responseType {
		return nil, &HandlerNotFoundError{Request: p.sig.Request, Response: responseType}
	}
	return p, nil
}

func (p *plan) execute(ctx context.Context, sc *scope.Scope, req any, log *slog.Logger) (any, error) {
	h := p.handler.resolve(sc)

	log.DebugContext(ctx, "dispatching request",
		logger.Request(p.sig.Request.String()),
		logger.Response(p.sig.Response.String()),
		logger.Handler(h.name))

	behaviors := make([]Behavior, 0, len(p.behaviors))
	for _, ctor := range p.behaviors {
		if b := ctor(sc); b != nil {
			behaviors = append(behaviors, b)
		}
	}

	terminal := func(ctx context.Context) (any, error) {
		return h.call(ctx, req)
	}
	return Chain(behaviors, req, terminal)(ctx)
}
