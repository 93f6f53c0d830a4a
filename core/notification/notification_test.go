package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/messaging/core/notification"
	"github.com/dmitrymomot/messaging/core/result"
)

type UserRegistered struct {
	notification.Base
	Email string `json:"email"`
}

type OrderShipped struct {
	notification.Base
	OrderID string `json:"order_id"`
}

// tenantHeader is embedded by the notifications below, so Base is promoted
// one level deep.
type tenantHeader struct {
	notification.Base
	Tenant string `json:"tenant"`
}

type TenantSuspended struct {
	tenantHeader
	Reason string `json:"reason"`
}

type SharedHeader struct {
	*notification.Base
}

type TenantDeleted struct {
	*SharedHeader
}

// foreignNotification satisfies Notification without embedding Base.
type foreignNotification struct {
	id uuid.UUID
}

func (f foreignNotification) Meta() notification.Base {
	return notification.Base{ID: f.id}
}

func newUserRegistered(email string) UserRegistered {
	return UserRegistered{Base: notification.NewBase("users"), Email: email}
}

func TestNewBase(t *testing.T) {
	t.Parallel()

	a := notification.NewBase("a")
	b := notification.NewBase("b")

	assert.Equal(t, uuid.Version(7), a.ID.Version())
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "a", a.Sender)
	assert.False(t, a.CreatedAt.IsZero())
	assert.False(t, a.Result.IsProcessed())
}

func TestWithResult(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("value notification is copied", func(t *testing.T) {
		t.Parallel()

		n := newUserRegistered("a@b.c")
		updated, err := notification.WithResult(n, notification.Succeeded("pub", at))
		require.NoError(t, err)

		got, ok := updated.(UserRegistered)
		require.True(t, ok)
		assert.Equal(t, "a@b.c", got.Email)
		assert.True(t, got.Result.IsSuccessful())
		assert.False(t, n.Result.IsProcessed())
	})

	t.Run("pointer notification is copied", func(t *testing.T) {
		t.Parallel()

		n := &OrderShipped{Base: notification.NewBase("orders"), OrderID: "o-1"}
		updated, err := notification.WithResult(n, notification.Failed("pub", at, "nope"))
		require.NoError(t, err)

		got, ok := updated.(*OrderShipped)
		require.True(t, ok)
		assert.NotSame(t, n, got)
		assert.Equal(t, "nope", got.Result.Error)
		assert.False(t, n.Result.IsProcessed())
	})

	t.Run("base promoted through an embedded struct", func(t *testing.T) {
		t.Parallel()

		n := TenantSuspended{
			tenantHeader: tenantHeader{Base: notification.NewBase("tenants"), Tenant: "acme"},
			Reason:       "billing",
		}
		updated, err := notification.WithResult(n, notification.Failed("pub", at, "nope"))
		require.NoError(t, err)

		got, ok := updated.(TenantSuspended)
		require.True(t, ok)
		assert.Equal(t, "acme", got.Tenant)
		assert.Equal(t, "billing", got.Reason)
		assert.Equal(t, "nope", got.Result.Error)
		assert.False(t, n.Result.IsProcessed())
	})

	t.Run("embedded pointers are copied", func(t *testing.T) {
		t.Parallel()

		base := notification.NewBase("tenants")
		n := &TenantDeleted{SharedHeader: &SharedHeader{Base: &base}}
		updated, err := notification.WithResult(n, notification.Succeeded("pub", at))
		require.NoError(t, err)

		got, ok := updated.(*TenantDeleted)
		require.True(t, ok)
		assert.True(t, got.Result.IsSuccessful())
		assert.Equal(t, base.ID, got.ID)
		assert.False(t, base.Result.IsProcessed())
		assert.False(t, n.Result.IsProcessed())
	})

	t.Run("nil embedded base is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := notification.WithResult(&TenantDeleted{SharedHeader: &SharedHeader{}}, notification.Succeeded("pub", at))
		assert.ErrorIs(t, err, notification.ErrInvalidState)
	})

	t.Run("typed nil", func(t *testing.T) {
		t.Parallel()

		_, err := notification.WithResult((*OrderShipped)(nil), notification.Succeeded("pub", at))
		assert.ErrorIs(t, err, notification.ErrNilNotification)
	})

	t.Run("foreign notification is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := notification.WithResult(foreignNotification{id: uuid.New()}, notification.Succeeded("pub", at))
		assert.ErrorIs(t, err, notification.ErrInvalidState)
	})
}

func TestProcessingResult(t *testing.T) {
	t.Parallel()

	at := time.Now()

	assert.False(t, notification.NotProcessed().IsProcessed())
	assert.False(t, notification.ProcessingResult{}.IsProcessed())

	ok := notification.FromResult("pub", at, result.Success())
	assert.True(t, ok.IsProcessed())
	assert.True(t, ok.IsSuccessful())
	assert.Equal(t, "pub", ok.ProcessedBy)

	failed := notification.FromResult("pub", at, result.Failure(&result.DomainError{Message: "bad"}))
	assert.True(t, failed.IsFailed())
	assert.Equal(t, "bad", failed.Error)
	assert.Equal(t, at, failed.ProcessedAt)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("first stored content wins", func(t *testing.T) {
		t.Parallel()

		s := notification.NewMemoryStore()
		first := newUserRegistered("first@example.com")
		second := first
		second.Email = "second@example.com"

		require.NoError(t, s.Store(ctx, first))
		require.NoError(t, s.Store(ctx, second))

		assert.Equal(t, 1, s.Len())
		got, err := s.Get(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "first@example.com", got.(UserRegistered).Email)
	})

	t.Run("nil notification", func(t *testing.T) {
		t.Parallel()

		s := notification.NewMemoryStore()
		assert.ErrorIs(t, s.Store(ctx, nil), notification.ErrNilNotification)
		assert.ErrorIs(t, s.Store(ctx, (*OrderShipped)(nil)), notification.ErrNilNotification)
		assert.Zero(t, s.Len())
	})

	t.Run("notification without id", func(t *testing.T) {
		t.Parallel()

		s := notification.NewMemoryStore()
		assert.ErrorIs(t, s.Store(ctx, UserRegistered{Email: "one"}), notification.ErrMissingID)
		assert.ErrorIs(t, s.Store(ctx, UserRegistered{Email: "two"}), notification.ErrMissingID)
		assert.Zero(t, s.Len())
	})

	t.Run("pending keeps insertion order", func(t *testing.T) {
		t.Parallel()

		s := notification.NewMemoryStore()
		a := newUserRegistered("a")
		b := newUserRegistered("b")
		require.NoError(t, s.Store(ctx, a))
		require.NoError(t, s.Store(ctx, b))

		pending, err := s.Pending(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, a.ID, pending[0].Meta().ID)
		assert.Equal(t, b.ID, pending[1].Meta().ID)
	})

	t.Run("mark published moves entry out of pending", func(t *testing.T) {
		t.Parallel()

		s := notification.NewMemoryStore()
		n := newUserRegistered("a")
		require.NoError(t, s.Store(ctx, n))

		at := time.Now().UTC()
		require.NoError(t, s.MarkPublished(ctx, n.ID, notification.Failed("pub", at, "boom")))

		pending, err := s.Pending(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)

		failed, err := s.FailedSince(ctx, at)
		require.NoError(t, err)
		require.Len(t, failed, 1)
		assert.Equal(t, "boom", failed[0].Meta().Result.Error)

		later, err := s.FailedSince(ctx, at.Add(time.Nanosecond))
		require.NoError(t, err)
		assert.Empty(t, later)
	})

	t.Run("successful entries are not failed", func(t *testing.T) {
		t.Parallel()

		s := notification.NewMemoryStore()
		n := newUserRegistered("a")
		require.NoError(t, s.Store(ctx, n))
		require.NoError(t, s.MarkPublished(ctx, n.ID, notification.Succeeded("pub", time.Now())))

		failed, err := s.FailedSince(ctx, time.Time{})
		require.NoError(t, err)
		assert.Empty(t, failed)
	})

	t.Run("mark published on unknown id", func(t *testing.T) {
		t.Parallel()

		err := notification.NewMemoryStore().MarkPublished(ctx, uuid.New(), notification.Succeeded("pub", time.Now()))
		assert.ErrorIs(t, err, notification.ErrNotFound)
	})

	t.Run("foreign notification is not stored", func(t *testing.T) {
		t.Parallel()

		s := notification.NewMemoryStore()
		f := foreignNotification{id: uuid.New()}
		assert.ErrorIs(t, s.Store(ctx, f), notification.ErrInvalidState)
		assert.Zero(t, s.Len())
	})
}
