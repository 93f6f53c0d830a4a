package notification_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/messaging/core/notification"
)

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("rejects non-positive interval", func(t *testing.T) {
		t.Parallel()
		p := newPublisher(notification.NewMemoryStore(), notification.NewRegistry())
		assert.ErrorIs(t, p.Run(context.Background(), 0), notification.ErrInvalidInterval)
	})

	t.Run("publishes until cancelled", func(t *testing.T) {
		t.Parallel()

		store := notification.NewMemoryStore()
		reg := notification.NewRegistry()
		var delivered atomic.Int32
		notification.SubscribeFunc(reg, func(ctx context.Context, n UserRegistered) error {
			delivered.Add(1)
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, store.Store(ctx, UserRegistered{Base: notification.NewBase("users"), Email: "a@example.com"}))

		done := make(chan error, 1)
		go func() { done <- newPublisher(store, reg).Run(ctx, 5*time.Millisecond) }()

		assert.Eventually(t, func() bool { return delivered.Load() == 1 }, time.Second, time.Millisecond)

		require.NoError(t, store.Store(ctx, UserRegistered{Base: notification.NewBase("users"), Email: "b@example.com"}))
		assert.Eventually(t, func() bool { return delivered.Load() == 2 }, time.Second, time.Millisecond)

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("publisher did not stop")
		}
	})
}
