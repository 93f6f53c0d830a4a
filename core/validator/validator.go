package validator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	playground "github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/messaging/core/behavior"
	"github.com/dmitrymomot/messaging/core/result"
)

// Validator wraps a go-playground validator instance.
type Validator struct {
	validate *playground.Validate

	mu       sync.RWMutex
	messages map[string]string
}

// Option configures a Validator.
type Option func(*Validator)

// WithFieldNameTag reports field names from the given struct tag (for example "json").
// Fields without the tag, or tagged "-", keep their Go name.
func WithFieldNameTag(tag string) Option {
	return func(v *Validator) {
		v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	}
}

// New creates a validator with required-struct checks enabled.
func New(opts ...Option) *Validator {
	v := &Validator{
		validate: playground.New(playground.WithRequiredStructEnabled()),
		messages: make(map[string]string),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// RegisterRule adds a custom tag with the message reported when it fails.
func (v *Validator) RegisterRule(tag string, fn playground.Func, message string) error {
	if err := v.validate.RegisterValidation(tag, fn); err != nil {
		return fmt.Errorf("register rule %q: %w", tag, err)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.messages[tag] = message
	return nil
}

// Struct validates s and returns its rule violations in field order.
// The error is non-nil only when s cannot be validated at all.
func (v *Validator) Struct(ctx context.Context, s any) ([]result.ValidationFailure, error) {
	err := v.validate.StructCtx(ctx, s)
	if err == nil {
		return nil, nil
	}

	var invalid *playground.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil, fmt.Errorf("validate %T: %w", s, err)
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, err
	}

	failures := make([]result.ValidationFailure, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		failures = append(failures, result.ValidationFailure{
			Field:   fieldPath(fe.Namespace()),
			Message: v.message(fe),
		})
	}
	return failures, nil
}

// For adapts v to a behavior.Validator for Req.
func For[Req any](v *Validator) behavior.Validator[Req] {
	return behavior.ValidatorFunc[Req](func(ctx context.Context, req Req) ([]result.ValidationFailure, error) {
		return v.Struct(ctx, req)
	})
}

// fieldPath drops the root struct name from a namespace such as "CreateUser.Address.City".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func (v *Validator) message(fe playground.FieldError) string {
	v.mu.RLock()
	custom, ok := v.messages[fe.Tag()]
	v.mu.RUnlock()
	if ok {
		return custom
	}
	return defaultMessage(fe)
}
