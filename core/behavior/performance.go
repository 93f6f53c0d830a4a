package behavior

import (
	"context"
	"time"

	"github.com/dmitrymomot/messaging/core/logger"
	"github.com/dmitrymomot/messaging/core/notification"
	"github.com/dmitrymomot/messaging/core/request"
	"github.com/dmitrymomot/messaging/core/scope"
)

// PerformanceSender prefixes the Sender of RequestExceededDuration
// notifications. The full sender names the pipeline instance, for example
// "PerformanceBehavior[orders.PlaceOrder, result.Of[uuid.UUID]]".
const PerformanceSender = "PerformanceBehavior"

// DefaultMaxExpectedDuration is used when PerformanceConfig leaves the threshold unset.
const DefaultMaxExpectedDuration = 5 * time.Second

// PerformanceConfig configures the performance behavior.
type PerformanceConfig struct {
	MaxExpectedDuration time.Duration `env:"MESSAGING_MAX_EXPECTED_DURATION" envDefault:"5s"`
}

// RequestExceededDuration is stored in the outbox when a request runs longer
// than the configured threshold.
type RequestExceededDuration struct {
	notification.Base
	RequestType         string        `json:"request_type"`
	ResponseType        string        `json:"response_type"`
	Duration            time.Duration `json:"duration"`
	MaxExpectedDuration time.Duration `json:"max_expected_duration"`
}

func init() {
	notification.RegisterType[RequestExceededDuration]()
}

// Performance returns a behavior that logs each request and its duration.
// Requests slower than cfg.MaxExpectedDuration are reported to store.
// Store failures are logged and never change the response.
func Performance(store notification.Store, cfg PerformanceConfig, opts ...Option) request.OpenBehavior {
	if cfg.MaxExpectedDuration <= 0 {
		cfg.MaxExpectedDuration = DefaultMaxExpectedDuration
	}
	o := newOptions(opts)

	return func(sig request.Signature) request.BehaviorConstructor {
		b := &performanceBehavior{
			sig:          sig,
			requestName:  sig.Request.String(),
			responseName: sig.Response.String(),
			sender:       PerformanceSender + "[" + sig.Request.String() + ", " + sig.Response.String() + "]",
			store:        store,
			max:          cfg.MaxExpectedDuration,
			opts:         o,
		}
		return func(*scope.Scope) request.Behavior { return b }
	}
}

type performanceBehavior struct {
	sig          request.Signature
	requestName  string
	responseName string
	sender       string
	store        notification.Store
	max          time.Duration
	opts         options
}

func (b *performanceBehavior) Handle(ctx context.Context, req any, next request.Next) (any, error) {
	log := b.opts.logger
	log.InfoContext(ctx, "handling request",
		logger.Request(b.requestName),
		logger.Response(b.responseName))

	start := b.opts.now()
	out, err := next(ctx)
	elapsed := b.opts.now().Sub(start)

	log.InfoContext(ctx, "handled request",
		logger.Request(b.requestName),
		logger.Response(b.responseName),
		logger.Duration(elapsed))

	if elapsed > b.max {
		log.WarnContext(ctx, "request exceeded expected duration",
			logger.Request(b.requestName),
			logger.Duration(elapsed),
			logger.Threshold(b.max))
		b.report(ctx, elapsed)
	}

	return out, err
}

func (b *performanceBehavior) report(ctx context.Context, elapsed time.Duration) {
	if b.store == nil {
		return
	}
	n := RequestExceededDuration{
		Base:                notification.NewBase(b.sender),
		RequestType:         b.requestName,
		ResponseType:        b.responseName,
		Duration:            elapsed,
		MaxExpectedDuration: b.max,
	}
	if err := b.store.Store(ctx, n); err != nil {
		b.opts.logger.ErrorContext(ctx, "failed to store slow request notification",
			logger.Request(b.requestName),
			logger.NotificationID(n.ID),
			logger.Error(err))
	}
}
