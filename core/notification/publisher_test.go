package notification_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/messaging/core/notification"
	"github.com/dmitrymomot/messaging/core/result"
	"github.com/dmitrymomot/messaging/core/scope"
)

var (
	discard = slog.New(slog.NewTextHandler(io.Discard, nil))
	fixedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
)

func newPublisher(store notification.Store, reg *notification.Registry) *notification.Publisher {
	return notification.NewPublisher(store, reg,
		notification.WithLogger(discard),
		notification.WithClock(func() time.Time { return fixedAt }),
	)
}

func TestPublish(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("notification without handlers fails", func(t *testing.T) {
		t.Parallel()

		store := notification.NewMemoryStore()
		n := newUserRegistered("a")
		require.NoError(t, store.Store(ctx, n))

		require.NoError(t, newPublisher(store, notification.NewRegistry()).Publish(ctx))

		failed, err := store.FailedSince(ctx, time.Unix(0, 0))
		require.NoError(t, err)
		require.Len(t, failed, 1)
		assert.Equal(t, n.ID, failed[0].Meta().ID)

		res := failed[0].Meta().Result
		assert.Equal(t, "No handlers registered for this notification type.", res.Error)
		assert.Equal(t, notification.DefaultPublisherName, res.ProcessedBy)
		assert.Equal(t, fixedAt, res.ProcessedAt)
	})

	t.Run("successful delivery", func(t *testing.T) {
		t.Parallel()

		store := notification.NewMemoryStore()
		reg := notification.NewRegistry()
		var delivered []string
		notification.SubscribeFunc(reg, func(ctx context.Context, n UserRegistered) error {
			delivered = append(delivered, n.Email)
			return nil
		})

		n := newUserRegistered("a@b.c")
		require.NoError(t, store.Store(ctx, n))
		require.NoError(t, newPublisher(store, reg).Publish(ctx))

		assert.Equal(t, []string{"a@b.c"}, delivered)
		got, err := store.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.True(t, got.Meta().Result.IsSuccessful())
	})

	t.Run("base promoted through an embedded struct", func(t *testing.T) {
		t.Parallel()

		store := notification.NewMemoryStore()
		reg := notification.NewRegistry()
		var reasons []string
		notification.SubscribeFunc(reg, func(ctx context.Context, n TenantSuspended) error {
			reasons = append(reasons, n.Reason)
			return nil
		})

		nested := TenantSuspended{
			tenantHeader: tenantHeader{Base: notification.NewBase("tenants"), Tenant: "acme"},
			Reason:       "billing",
		}
		later := newUserRegistered("later")
		require.NoError(t, store.Store(ctx, nested))
		require.NoError(t, store.Store(ctx, later))

		p := newPublisher(store, reg)
		require.NoError(t, p.Publish(ctx))
		require.NoError(t, p.Publish(ctx))

		assert.Equal(t, []string{"billing"}, reasons)
		pending, err := store.Pending(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)

		got, err := store.Get(ctx, nested.ID)
		require.NoError(t, err)
		assert.True(t, got.Meta().Result.IsSuccessful())
	})

	t.Run("default clock keeps microsecond precision", func(t *testing.T) {
		t.Parallel()

		store := notification.NewMemoryStore()
		n := newUserRegistered("a")
		require.NoError(t, store.Store(ctx, n))
		require.NoError(t, notification.NewPublisher(store, notification.NewRegistry(), notification.WithLogger(discard)).Publish(ctx))

		got, err := store.Get(ctx, n.ID)
		require.NoError(t, err)
		at := got.Meta().Result.ProcessedAt
		assert.False(t, at.IsZero())
		assert.True(t, at.Truncate(time.Microsecond).Equal(at))
	})

	t.Run("publish marks exactly the drained set", func(t *testing.T) {
		t.Parallel()

		store := notification.NewMemoryStore()
		reg := notification.NewRegistry()
		notification.SubscribeFunc(reg, func(ctx context.Context, n UserRegistered) error { return nil })

		done := newUserRegistered("done")
		require.NoError(t, store.Store(ctx, done))
		require.NoError(t, store.MarkPublished(ctx, done.ID, notification.Failed("earlier", fixedAt.Add(-time.Hour), "old")))

		drained := []notification.Notification{
			newUserRegistered("one"),
			OrderShipped{Base: notification.NewBase("orders"), OrderID: "o-1"},
			newUserRegistered("two"),
		}
		for _, n := range drained {
			require.NoError(t, store.Store(ctx, n))
		}

		require.NoError(t, newPublisher(store, reg).Publish(ctx))

		pending, err := store.Pending(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)

		for _, n := range drained {
			got, err := store.Get(ctx, n.Meta().ID)
			require.NoError(t, err)
			assert.True(t, got.Meta().Result.IsProcessed())
			assert.Equal(t, notification.DefaultPublisherName, got.Meta().Result.ProcessedBy)
		}

		untouched, err := store.Get(ctx, done.ID)
		require.NoError(t, err)
		assert.Equal(t, "earlier", untouched.Meta().Result.ProcessedBy)
		assert.Equal(t, "old", untouched.Meta().Result.Error)
	})

	t.Run("all handlers run and the last failure wins", func(t *testing.T) {
		t.Parallel()

		store := notification.NewMemoryStore()
		reg := notification.NewRegistry()
		var calls []int
		notification.SubscribeFunc(reg, func(ctx context.Context, n UserRegistered) error {
			calls = append(calls, 1)
			return &result.DomainError{Message: "first failure"}
		})
		notification.SubscribeFunc(reg, func(ctx context.Context, n UserRegistered) error {
			calls = append(calls, 2)
			return nil
		})
		notification.SubscribeFunc(reg, func(ctx context.Context, n UserRegistered) error {
			calls = append(calls, 3)
			return errors.New("smtp down")
		})

		n := newUserRegistered("a")
		require.NoError(t, store.Store(ctx, n))
		require.NoError(t, newPublisher(store, reg).Publish(ctx))

		assert.Equal(t, []int{1, 2, 3}, calls)
		got, err := store.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, "An unexpected error occurred: smtp down", got.Meta().Result.Error)
	})

	t.Run("outcome errors keep their message", func(t *testing.T) {
		t.Parallel()

		store := notification.NewMemoryStore()
		reg := notification.NewRegistry()
		notification.SubscribeFunc(reg, func(ctx context.Context, n UserRegistered) error {
			return &result.DomainError{Message: "mailbox full"}
		})

		n := newUserRegistered("a")
		require.NoError(t, store.Store(ctx, n))
		require.NoError(t, newPublisher(store, reg).Publish(ctx))

		got, err := store.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, "mailbox full", got.Meta().Result.Error)
	})

	t.Run("panicking handler is recorded as failure", func(t *testing.T) {
		t.Parallel()

		store := notification.NewMemoryStore()
		reg := notification.NewRegistry()
		notification.SubscribeFunc(reg, func(ctx context.Context, n UserRegistered) error {
			panic("kaboom")
		})

		n := newUserRegistered("a")
		require.NoError(t, store.Store(ctx, n))
		require.NoError(t, newPublisher(store, reg).Publish(ctx))

		got, err := store.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.True(t, got.Meta().Result.IsFailed())
		assert.Contains(t, got.Meta().Result.Error, "An unexpected error occurred:")
		assert.Contains(t, got.Meta().Result.Error, "kaboom")
	})

	t.Run("one scope per publish run", func(t *testing.T) {
		t.Parallel()

		store := notification.NewMemoryStore()
		reg := notification.NewRegistry()
		var built, closed atomic.Int32
		notification.Subscribe(reg, func(sc *scope.Scope) notification.Handler[UserRegistered] {
			built.Add(1)
			sc.OnClose(func() error {
				closed.Add(1)
				return nil
			})
			return notification.HandlerFunc[UserRegistered](func(ctx context.Context, n UserRegistered) error {
				return nil
			})
		})

		for range 3 {
			require.NoError(t, store.Store(ctx, newUserRegistered("x")))
		}
		require.NoError(t, newPublisher(store, reg).Publish(ctx))

		assert.Equal(t, int32(1), built.Load())
		assert.Equal(t, int32(1), closed.Load())
	})

	t.Run("empty outbox", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, newPublisher(notification.NewMemoryStore(), notification.NewRegistry()).Publish(ctx))
	})

	t.Run("cancelled context stops the run", func(t *testing.T) {
		t.Parallel()

		store := notification.NewMemoryStore()
		require.NoError(t, store.Store(ctx, newUserRegistered("a")))

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		err := newPublisher(store, notification.NewRegistry()).Publish(cctx)
		assert.ErrorIs(t, err, context.Canceled)

		pending, err := store.Pending(ctx)
		require.NoError(t, err)
		assert.Len(t, pending, 1)
	})

	t.Run("store failure aborts the run", func(t *testing.T) {
		t.Parallel()

		store := &failingMarkStore{MemoryStore: notification.NewMemoryStore()}
		require.NoError(t, store.Store(ctx, newUserRegistered("a")))

		err := newPublisher(store, notification.NewRegistry()).Publish(ctx)
		assert.ErrorIs(t, err, errMarkFailed)
	})

	t.Run("custom publisher name", func(t *testing.T) {
		t.Parallel()

		store := notification.NewMemoryStore()
		n := newUserRegistered("a")
		require.NoError(t, store.Store(ctx, n))

		pub := notification.NewPublisher(store, notification.NewRegistry(),
			notification.WithLogger(discard), notification.WithName("worker-1"))
		require.NoError(t, pub.Publish(ctx))

		got, err := store.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, "worker-1", got.Meta().Result.ProcessedBy)
	})
}

var errMarkFailed = errors.New("mark failed")

type failingMarkStore struct {
	*notification.MemoryStore
}

func (s *failingMarkStore) MarkPublished(ctx context.Context, id uuid.UUID, r notification.ProcessingResult) error {
	return errMarkFailed
}
