package behavior_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/messaging/core/behavior"
	"github.com/dmitrymomot/messaging/core/request"
)

func TestRequestMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics, err := behavior.NewRequestMetrics(reg)
	require.NoError(t, err)

	d := outcomeDispatcher(metrics.Behavior())
	ctx := context.Background()

	for _, input := range []string{"a", "b", "bad"} {
		_, err := request.Send(ctx, d, EchoQuery{Input: input})
		require.NoError(t, err)
	}
	_, err = request.Send(ctx, d, RawEcho{Input: "bad"})
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Total("behavior_test.EchoQuery", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Total("behavior_test.EchoQuery", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Total("behavior_test.RawEcho", "error")))

	count, err := testutil.GatherAndCount(reg, "messaging_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRequestMetricsDuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := behavior.NewRequestMetrics(reg)
	require.NoError(t, err)

	_, err = behavior.NewRequestMetrics(reg)
	assert.Error(t, err)
}
