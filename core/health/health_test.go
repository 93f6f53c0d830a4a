package health_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/messaging/core/health"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestReadiness(t *testing.T) {
	t.Parallel()

	t.Run("all checks pass", func(t *testing.T) {
		t.Parallel()
		ok := func(context.Context) error { return nil }
		assert.NoError(t, health.Readiness(context.Background(), discard, ok, nil, ok))
	})

	t.Run("failures are joined and every check runs", func(t *testing.T) {
		t.Parallel()

		dbErr := errors.New("connection refused")
		var calls int
		failing := health.Named("postgres", func(context.Context) error { calls++; return dbErr })
		passing := health.Check(func(context.Context) error { calls++; return nil })

		err := health.Readiness(context.Background(), discard, failing, passing)
		require.Error(t, err)
		assert.ErrorIs(t, err, health.ErrNotReady)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "postgres: connection refused")
		assert.Equal(t, 2, calls)
	})
}
