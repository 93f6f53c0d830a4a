package messaging_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/messaging"
	"github.com/dmitrymomot/messaging/core/behavior"
	"github.com/dmitrymomot/messaging/core/config"
	"github.com/dmitrymomot/messaging/core/notification"
	"github.com/dmitrymomot/messaging/core/request"
	"github.com/dmitrymomot/messaging/core/result"
	"github.com/dmitrymomot/messaging/core/validator"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type Greet struct {
	request.Query[string]
	Input string `validate:"max=10"`
}

type OrderPlaced struct {
	notification.Base
	OrderID string
}

func greetings() request.Module {
	return request.ModuleFunc(func(r *request.Registry) {
		request.RegisterFunc(r, func(ctx context.Context, q Greet) (result.Of[string], error) {
			return result.Ok("hello"), nil
		})
	})
}

func quiet() messaging.Config {
	cfg := messaging.DefaultConfig()
	cfg.Validation = false
	cfg.PerformanceLogging = false
	return cfg
}

func TestSendReturnsHandlerOutcome(t *testing.T) {
	t.Parallel()

	m, err := messaging.New(
		messaging.WithConfig(messaging.DefaultConfig()),
		messaging.WithLogger(discard),
		messaging.WithRequestModules(greetings()),
	)
	require.NoError(t, err)

	out, err := messaging.Send(context.Background(), m, Greet{})
	require.NoError(t, err)
	value, ok := out.Value()
	require.True(t, ok)
	assert.Equal(t, "hello", value)
}

func TestSendValidatesRequests(t *testing.T) {
	t.Parallel()

	v := validator.New()
	m, err := messaging.New(
		messaging.WithConfig(messaging.DefaultConfig()),
		messaging.WithLogger(discard),
		messaging.WithRequestModules(greetings()),
		messaging.WithValidators(func(vs *behavior.Validators) {
			behavior.AddValidator(vs, validator.For[Greet](v))
		}),
	)
	require.NoError(t, err)

	out, err := messaging.Send(context.Background(), m, Greet{Input: "twelve chars"})
	require.NoError(t, err)
	require.False(t, out.IsSuccess())

	var verr *result.ValidationError
	require.ErrorAs(t, out.Err(), &verr)
	require.Len(t, verr.Failures, 1)
	assert.Equal(t, "Input", verr.Failures[0].Field)

	out, err = messaging.Send(context.Background(), m, Greet{Input: "short"})
	require.NoError(t, err)
	assert.True(t, out.IsSuccess())
}

func TestValidationDisabledByConfig(t *testing.T) {
	t.Parallel()

	v := validator.New()
	m, err := messaging.New(
		messaging.WithConfig(quiet()),
		messaging.WithLogger(discard),
		messaging.WithRequestModules(greetings()),
		messaging.WithValidators(func(vs *behavior.Validators) {
			behavior.AddValidator(vs, validator.For[Greet](v))
		}),
	)
	require.NoError(t, err)

	out, err := messaging.Send(context.Background(), m, Greet{Input: "twelve chars"})
	require.NoError(t, err)
	assert.True(t, out.IsSuccess())
}

func TestBehaviorsRunInOptionOrder(t *testing.T) {
	t.Parallel()

	var trace []string
	tracing := func(name string) request.OpenBehavior {
		return request.Always(request.BehaviorFunc(func(ctx context.Context, req any, next request.Next) (any, error) {
			trace = append(trace, "Before-"+name)
			out, err := next(ctx)
			trace = append(trace, "After-"+name)
			return out, err
		}))
	}

	m, err := messaging.New(
		messaging.WithConfig(quiet()),
		messaging.WithLogger(discard),
		messaging.WithBehaviors(tracing("A")),
		messaging.WithRequestModules(greetings()),
		messaging.WithBehaviors(tracing("B")),
	)
	require.NoError(t, err)

	_, err = messaging.Send(context.Background(), m, Greet{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Before-A", "Before-B", "After-B", "After-A"}, trace)
}

func TestExplicitValidationPosition(t *testing.T) {
	t.Parallel()

	var reached bool
	outer := request.Always(request.BehaviorFunc(func(ctx context.Context, req any, next request.Next) (any, error) {
		reached = true
		return next(ctx)
	}))

	m, err := messaging.New(
		messaging.WithConfig(messaging.DefaultConfig()),
		messaging.WithLogger(discard),
		messaging.WithRequestModules(greetings()),
		messaging.WithBehaviors(outer),
		messaging.WithValidation(func(vs *behavior.Validators) {
			behavior.AddValidatorFunc(vs, func(ctx context.Context, q Greet) ([]result.ValidationFailure, error) {
				return []result.ValidationFailure{{Field: "Input", Message: "rejected"}}, nil
			})
		}),
	)
	require.NoError(t, err)

	out, err := messaging.Send(context.Background(), m, Greet{})
	require.NoError(t, err)
	assert.False(t, out.IsSuccess())
	assert.True(t, reached)
}

func TestRepeatedValidationRunsValidatorsOnce(t *testing.T) {
	t.Parallel()

	var first, second int
	m, err := messaging.New(
		messaging.WithConfig(quiet()),
		messaging.WithLogger(discard),
		messaging.WithRequestModules(greetings()),
		messaging.WithValidation(func(vs *behavior.Validators) {
			behavior.AddValidatorFunc(vs, func(ctx context.Context, q Greet) ([]result.ValidationFailure, error) {
				first++
				return nil, nil
			})
		}),
		messaging.WithValidation(func(vs *behavior.Validators) {
			behavior.AddValidatorFunc(vs, func(ctx context.Context, q Greet) ([]result.ValidationFailure, error) {
				second++
				return nil, nil
			})
		}),
	)
	require.NoError(t, err)

	out, err := messaging.Send(context.Background(), m, Greet{Input: "hi"})
	require.NoError(t, err)
	assert.True(t, out.IsSuccess())
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestPublishWithoutHandlers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, err := messaging.New(
		messaging.WithConfig(quiet()),
		messaging.WithLogger(discard),
	)
	require.NoError(t, err)

	n := OrderPlaced{Base: notification.NewBase("orders"), OrderID: "o-1"}
	require.NoError(t, m.Notify(ctx, n))
	require.NoError(t, m.Publish(ctx))

	failed, err := m.Store().FailedSince(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, n.ID, failed[0].Meta().ID)
	assert.Equal(t, notification.NoHandlersMessage, failed[0].Meta().Result.Error)
	assert.Equal(t, notification.DefaultPublisherName, failed[0].Meta().Result.ProcessedBy)
}

func TestPublishDeliversToModules(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var delivered []string
	store := notification.NewMemoryStore()

	cfg := quiet()
	cfg.PublisherName = "orders-worker"
	m, err := messaging.New(
		messaging.WithConfig(cfg),
		messaging.WithLogger(discard),
		messaging.WithStore(store),
		messaging.WithNotificationModules(notification.ModuleFunc(func(r *notification.Registry) {
			notification.SubscribeFunc(r, func(ctx context.Context, n OrderPlaced) error {
				delivered = append(delivered, n.OrderID)
				return nil
			})
		})),
	)
	require.NoError(t, err)
	assert.Same(t, store, m.Store())

	n := OrderPlaced{Base: notification.NewBase("orders"), OrderID: "o-2"}
	require.NoError(t, m.Notify(ctx, n))
	require.NoError(t, m.Publish(ctx))

	assert.Equal(t, []string{"o-2"}, delivered)
	got, err := store.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, got.Meta().Result.IsSuccessful())
	assert.Equal(t, "orders-worker", got.Meta().Result.ProcessedBy)
}

func TestWithMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := messaging.New(
		messaging.WithConfig(quiet()),
		messaging.WithLogger(discard),
		messaging.WithTracing(),
		messaging.WithMetrics(reg),
		messaging.WithRequestModules(greetings()),
	)
	require.NoError(t, err)
	require.NotNil(t, m.Metrics())

	_, err = messaging.Send(context.Background(), m, Greet{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Metrics().Total("messaging_test.Greet", "success")))

	_, err = messaging.New(messaging.WithConfig(quiet()), messaging.WithMetrics(reg))
	assert.Error(t, err)
}

func TestNilOptionValues(t *testing.T) {
	t.Parallel()

	_, err := messaging.New(messaging.WithConfig(quiet()), messaging.WithLogger(nil))
	assert.Error(t, err)

	_, err = messaging.New(messaging.WithConfig(quiet()), messaging.WithStore(nil))
	assert.Error(t, err)

	_, err = messaging.New(messaging.WithConfig(quiet()), messaging.WithBehaviors(nil))
	assert.Error(t, err)
}

func TestConfigFromEnvironment(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	t.Setenv("MESSAGING_PUBLISHER_NAME", "env-publisher")
	t.Setenv("MESSAGING_MAX_EXPECTED_DURATION", "250ms")
	t.Setenv("MESSAGING_VALIDATION", "false")

	m, err := messaging.New(messaging.WithLogger(discard))
	require.NoError(t, err)

	cfg := m.Config()
	assert.Equal(t, "env-publisher", cfg.PublisherName)
	assert.Equal(t, 250*time.Millisecond, cfg.Performance.MaxExpectedDuration)
	assert.False(t, cfg.Validation)
	assert.True(t, cfg.PerformanceLogging)
	assert.Equal(t, "env-publisher", m.Publisher().Name())
}

func TestSendMissingHandler(t *testing.T) {
	t.Parallel()

	m, err := messaging.New(messaging.WithConfig(quiet()), messaging.WithLogger(discard))
	require.NoError(t, err)

	_, err = messaging.Send(context.Background(), m, Greet{})
	assert.True(t, errors.Is(err, request.ErrHandlerNotFound))
}
