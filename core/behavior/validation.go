package behavior

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/messaging/core/logger"
	"github.com/dmitrymomot/messaging/core/request"
	"github.com/dmitrymomot/messaging/core/result"
	"github.com/dmitrymomot/messaging/core/scope"
)

// Validator checks one request type. Rule violations are returned as
// failures; the error return is reserved for validators that could not run.
type Validator[Req any] interface {
	Validate(ctx context.Context, req Req) ([]result.ValidationFailure, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc[Req any] func(ctx context.Context, req Req) ([]result.ValidationFailure, error)

// Validate calls f(ctx, req).
func (f ValidatorFunc[Req]) Validate(ctx context.Context, req Req) ([]result.ValidationFailure, error) {
	return f(ctx, req)
}

type validateFunc func(ctx context.Context, req any) ([]result.ValidationFailure, error)

// Validators holds validators keyed by request type.
// Validators added after a request type's first dispatch are not applied to it.
type Validators struct {
	mu     sync.RWMutex
	byType map[reflect.Type][]validateFunc
}

// NewValidators returns an empty validator set.
func NewValidators() *Validators {
	return &Validators{byType: make(map[reflect.Type][]validateFunc)}
}

// AddValidator registers v for Req. Validators of one request run concurrently.
func AddValidator[Req any](vs *Validators, v Validator[Req]) {
	t := reflect.TypeFor[Req]()
	fn := func(ctx context.Context, req any) ([]result.ValidationFailure, error) {
		typed, ok := req.(Req)
		if !ok {
			return nil, fmt.Errorf("%w: validator for %s got %T", request.ErrUnexpectedRequest, t, req)
		}
		return v.Validate(ctx, typed)
	}

	vs.mu.Lock()
	defer vs.mu.Unlock()
	vs.byType[t] = append(vs.byType[t], fn)
}

// AddValidatorFunc registers a function validator for Req.
func AddValidatorFunc[Req any](vs *Validators, fn func(ctx context.Context, req Req) ([]result.ValidationFailure, error)) {
	AddValidator[Req](vs, ValidatorFunc[Req](fn))
}

// Count returns the number of validators registered for the request type.
func (vs *Validators) Count(t reflect.Type) int {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	return len(vs.byType[t])
}

func (vs *Validators) forType(t reflect.Type) []validateFunc {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	fns := vs.byType[t]
	out := make([]validateFunc, len(fns))
	copy(out, fns)
	return out
}

// Validation returns a behavior that runs the validators of each request
// before its handler. When any validator reports failures the handler is not
// called. Outcome response types (result.Result, result.Of[T]) receive a
// failure carrying *result.ValidationError; other response types get the
// *result.ValidationError as the returned error.
func Validation(vs *Validators, opts ...Option) request.OpenBehavior {
	o := newOptions(opts)
	return func(sig request.Signature) request.BehaviorConstructor {
		validators := vs.forType(sig.Request)
		if len(validators) == 0 {
			return nil
		}
		b := &validationBehavior{
			sig:        sig,
			validators: validators,
			fail:       failureConstructor(sig.Response),
			opts:       o,
		}
		return func(*scope.Scope) request.Behavior { return b }
	}
}

type validationBehavior struct {
	sig        request.Signature
	validators []validateFunc
	fail       func(error) any
	opts       options
}

func (b *validationBehavior) Handle(ctx context.Context, req any, next request.Next) (any, error) {
	reports := make([][]result.ValidationFailure, len(b.validators))

	g, gctx := errgroup.WithContext(ctx)
	for i, validate := range b.validators {
		g.Go(func() error {
			failures, err := validate(gctx, req)
			if err != nil {
				return err
			}
			reports[i] = failures
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", b.sig.Request, err)
	}

	var failures []result.ValidationFailure
	for _, r := range reports {
		failures = append(failures, r...)
	}
	if len(failures) == 0 {
		return next(ctx)
	}

	verr := result.NewValidationError(failures...)
	b.opts.logger.DebugContext(ctx, "request failed validation",
		logger.Request(b.sig.Request.String()),
		logger.Count("failures", len(failures)))

	if b.fail != nil {
		return b.fail(verr), nil
	}
	return nil, verr
}

type failureCtor struct {
	fn func(error) any
}

// failureCtors caches the failure constructor per response type.
// Non-outcome types are cached with a nil constructor.
var failureCtors sync.Map

var outcomeType = reflect.TypeFor[result.Outcome]()

func failureConstructor(t reflect.Type) func(error) any {
	if c, ok := failureCtors.Load(t); ok {
		return c.(failureCtor).fn
	}

	var fn func(error) any
	if t.Kind() != reflect.Interface && t.Implements(outcomeType) {
		var zero reflect.Value
		if t.Kind() == reflect.Pointer {
			zero = reflect.New(t.Elem())
		} else {
			zero = reflect.Zero(t)
		}
		fn = zero.Interface().(result.Outcome).AsFailure
	}

	c, _ := failureCtors.LoadOrStore(t, failureCtor{fn: fn})
	return c.(failureCtor).fn
}
