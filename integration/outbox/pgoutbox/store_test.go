package pgoutbox_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/messaging/core/logger"
	"github.com/dmitrymomot/messaging/core/notification"
	"github.com/dmitrymomot/messaging/core/notification/notificationtest"
	"github.com/dmitrymomot/messaging/integration/database/pg"
	"github.com/dmitrymomot/messaging/integration/outbox/pgoutbox"
)

func connect(t *testing.T) *pg.Config {
	t.Helper()
	url := os.Getenv("PG_CONN_URL")
	if url == "" {
		t.Skip("PG_CONN_URL not set")
	}
	return &pg.Config{ConnectionString: url, RetryAttempts: 1}
}

func TestStore(t *testing.T) {
	cfg := connect(t)
	ctx := context.Background()

	pool, err := pg.Connect(ctx, *cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pgoutbox.Migrate(ctx, pool, logger.Discard()))

	notificationtest.RunStoreSuite(t, func(t *testing.T) notification.Store {
		_, err := pool.Exec(ctx, "TRUNCATE notifications")
		require.NoError(t, err)
		return pgoutbox.New(pool)
	})

	t.Run("rolled back transaction discards the notification", func(t *testing.T) {
		_, err := pool.Exec(ctx, "TRUNCATE notifications")
		require.NoError(t, err)
		store := pgoutbox.New(pool)

		errAbort := assert.AnError
		err = pg.InTx(ctx, pool, func(ctx context.Context) error {
			require.NoError(t, store.Store(ctx, notificationtest.NewAccountOpened("tx")))
			return errAbort
		})
		require.ErrorIs(t, err, errAbort)

		pending, err := store.Pending(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
	t.Run("processed times keep microsecond precision", func(t *testing.T) {
		_, err := pool.Exec(ctx, "TRUNCATE notifications")
		require.NoError(t, err)
		store := pgoutbox.New(pool)

		n := notificationtest.NewAccountOpened("micros")
		require.NoError(t, store.Store(ctx, n))

		at := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
		require.NoError(t, store.MarkPublished(ctx, n.ID, notification.Failed("pub", at, "boom")))

		failed, err := store.FailedSince(ctx, at)
		require.NoError(t, err)
		require.Len(t, failed, 1)
		assert.True(t, at.Truncate(time.Microsecond).Equal(failed[0].Meta().Result.ProcessedAt))
	})
}
