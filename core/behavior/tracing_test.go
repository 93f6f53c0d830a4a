package behavior_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dmitrymomot/messaging/core/behavior"
	"github.com/dmitrymomot/messaging/core/request"
	"github.com/dmitrymomot/messaging/core/result"
)

var errRejected = errors.New("rejected")

// outcomeDispatcher fails EchoQuery with an outcome when Input is "bad" and
// fails RawEcho with an error when Input is "bad".
func outcomeDispatcher(behaviors ...request.OpenBehavior) *request.Dispatcher {
	reg := request.NewRegistry()
	request.RegisterFunc(reg, func(ctx context.Context, q EchoQuery) (result.Of[string], error) {
		if q.Input == "bad" {
			return result.Fail[string](errRejected), nil
		}
		return result.Ok(q.Input), nil
	})
	request.RegisterFunc(reg, func(ctx context.Context, q RawEcho) (string, error) {
		if q.Input == "bad" {
			return "", errRejected
		}
		return q.Input, nil
	})
	reg.Use(behaviors...)
	return request.NewDispatcher(reg, request.WithLogger(discard))
}

func TestTracing(t *testing.T) {
	t.Parallel()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	d := outcomeDispatcher(behavior.TracingWithTracer(tp.Tracer("test")))
	ctx := context.Background()

	_, err := request.Send(ctx, d, EchoQuery{Input: "ok"})
	require.NoError(t, err)
	_, err = request.Send(ctx, d, EchoQuery{Input: "bad"})
	require.NoError(t, err)
	_, err = request.Send(ctx, d, RawEcho{Input: "bad"})
	require.ErrorIs(t, err, errRejected)

	spans := sr.Ended()
	require.Len(t, spans, 3)

	assert.Equal(t, "messaging.request.send", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(),
		attribute.String("messaging.request.type", "behavior_test.EchoQuery"))

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "rejected", spans[1].Status().Description)

	assert.Equal(t, codes.Error, spans[2].Status().Code)
	assert.Contains(t, spans[2].Attributes(),
		attribute.String("messaging.request.type", "behavior_test.RawEcho"))
}
