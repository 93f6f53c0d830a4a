package behavior

import (
	"context"

	"github.com/dmitrymomot/messaging/core/logger"
	"github.com/dmitrymomot/messaging/core/request"
	"github.com/dmitrymomot/messaging/core/scope"
)

// Logging returns a behavior that logs each request at debug level with its
// duration and error.
func Logging(opts ...Option) request.OpenBehavior {
	o := newOptions(opts)
	return func(sig request.Signature) request.BehaviorConstructor {
		requestName := sig.Request.String()
		b := request.BehaviorFunc(func(ctx context.Context, req any, next request.Next) (any, error) {
			start := o.now()
			out, err := next(ctx)
			o.logger.DebugContext(ctx, "request processed",
				logger.Request(requestName),
				logger.Duration(o.now().Sub(start)),
				logger.Error(err))
			return out, err
		})
		return func(*scope.Scope) request.Behavior { return b }
	}
}
