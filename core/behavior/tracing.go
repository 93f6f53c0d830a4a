package behavior

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/messaging/core/request"
	"github.com/dmitrymomot/messaging/core/scope"
)

const tracerName = "github.com/dmitrymomot/messaging"

// Tracing wraps each request in a span from the global TracerProvider.
// Without a configured provider the noop tracer makes it a pass-through.
func Tracing() request.OpenBehavior {
	return TracingWithTracer(otel.Tracer(tracerName))
}

// TracingWithTracer is Tracing with an explicit tracer.
//
// Failed outcomes mark the span as an error even though the handler returned
// no error.
func TracingWithTracer(tracer trace.Tracer) request.OpenBehavior {
	return func(sig request.Signature) request.BehaviorConstructor {
		attrs := trace.WithAttributes(
			attribute.String("messaging.request.type", sig.Request.String()),
			attribute.String("messaging.response.type", sig.Response.String()),
		)
		b := request.BehaviorFunc(func(ctx context.Context, req any, next request.Next) (any, error) {
			ctx, span := tracer.Start(ctx, "messaging.request.send", attrs,
				trace.WithSpanKind(trace.SpanKindInternal))
			defer span.End()

			out, err := next(ctx)
			if failure := failureOf(out, err); failure != nil {
				span.RecordError(failure)
				span.SetStatus(codes.Error, failure.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}
			return out, err
		})
		return func(*scope.Scope) request.Behavior { return b }
	}
}
