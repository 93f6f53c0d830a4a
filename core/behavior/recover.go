package behavior

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/messaging/core/logger"
	"github.com/dmitrymomot/messaging/core/request"
	"github.com/dmitrymomot/messaging/core/scope"
)

// Recover returns a behavior that converts panics from inner behaviors and
// the handler into errors wrapping ErrPanic. Register it first so it wraps
// everything else.
func Recover(opts ...Option) request.OpenBehavior {
	o := newOptions(opts)
	return func(sig request.Signature) request.BehaviorConstructor {
		name := sig.String()
		b := request.BehaviorFunc(func(ctx context.Context, req any, next request.Next) (out any, err error) {
			defer func() {
				if r := recover(); r != nil {
					o.logger.ErrorContext(ctx, "request handler panicked",
						logger.Request(sig.Request.String()),
						logger.Panic(r),
						logger.Stack())
					out, err = nil, fmt.Errorf("%w: %s: %v", ErrPanic, name, r)
				}
			}()
			return next(ctx)
		})
		return func(*scope.Scope) request.Behavior { return b }
	}
}
