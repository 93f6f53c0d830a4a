// Package notificationtest provides a behavioral test suite shared by every
// notification.Store implementation.
package notificationtest

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dmitrymomot/messaging/core/notification"
)

// AccountOpened is the notification type used by the suite.
type AccountOpened struct {
	notification.Base
	Owner string `json:"owner"`
}

// AuditHeader is embedded by FundsMoved and carries the notification metadata.
type AuditHeader struct {
	notification.Base
	Actor string `json:"actor"`
}

// FundsMoved reaches Base through AuditHeader.
type FundsMoved struct {
	AuditHeader
	Amount int `json:"amount"`
}

// unlisted is never registered, so durable stores return it as notification.Raw.
type unlisted struct {
	notification.Base
	Note string `json:"note"`
}

func init() {
	notification.RegisterType[AccountOpened]()
	notification.RegisterType[FundsMoved]()
}

// NewAccountOpened returns a fresh pending notification.
func NewAccountOpened(owner string) AccountOpened {
	return AccountOpened{Base: notification.NewBase("accounts"), Owner: owner}
}

// RunStoreSuite checks the Store contract against stores built by newStore.
// Each subtest receives a fresh, empty store.
func RunStoreSuite(t *testing.T, newStore func(t *testing.T) notification.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("first stored content wins", func(t *testing.T) {
		s := newStore(t)
		first := NewAccountOpened("first")
		second := first
		second.Owner = "second"

		require.NoError(t, s.Store(ctx, first))
		require.NoError(t, s.Store(ctx, second))

		pending, err := s.Pending(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "first", pending[0].(AccountOpened).Owner)
	})

	t.Run("pending is ordered by creation", func(t *testing.T) {
		s := newStore(t)
		a := NewAccountOpened("a")
		time.Sleep(2 * time.Millisecond)
		b := NewAccountOpened("b")

		require.NoError(t, s.Store(ctx, b))
		require.NoError(t, s.Store(ctx, a))

		pending, err := s.Pending(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, a.ID, pending[0].Meta().ID)
		assert.Equal(t, b.ID, pending[1].Meta().ID)
	})

	t.Run("mark published as failed", func(t *testing.T) {
		s := newStore(t)
		n := NewAccountOpened("a")
		require.NoError(t, s.Store(ctx, n))

		at := time.Now().UTC()
		require.NoError(t, s.MarkPublished(ctx, n.ID, notification.Failed("pub", at, "boom")))

		pending, err := s.Pending(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)

		failed, err := s.FailedSince(ctx, at)
		require.NoError(t, err)
		require.Len(t, failed, 1)
		got := failed[0].(AccountOpened)
		assert.Equal(t, n.ID, got.ID)
		assert.Equal(t, "a", got.Owner)
		assert.Equal(t, notification.StateFailed, got.Result.State)
		assert.Equal(t, "boom", got.Result.Error)
		assert.Equal(t, "pub", got.Result.ProcessedBy)
		assert.WithinDuration(t, at, got.Result.ProcessedAt, time.Microsecond)

		later, err := s.FailedSince(ctx, at.Add(time.Millisecond))
		require.NoError(t, err)
		assert.Empty(t, later)
	})

	t.Run("mark published as succeeded", func(t *testing.T) {
		s := newStore(t)
		n := NewAccountOpened("a")
		require.NoError(t, s.Store(ctx, n))
		require.NoError(t, s.MarkPublished(ctx, n.ID, notification.Succeeded("pub", time.Now().UTC())))

		pending, err := s.Pending(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)

		failed, err := s.FailedSince(ctx, time.Time{})
		require.NoError(t, err)
		assert.Empty(t, failed)
	})

	t.Run("mark published overwrites an earlier result", func(t *testing.T) {
		s := newStore(t)
		n := NewAccountOpened("a")
		require.NoError(t, s.Store(ctx, n))

		at := time.Now().UTC().Truncate(time.Microsecond)
		require.NoError(t, s.MarkPublished(ctx, n.ID, notification.Failed("pub", at, "boom")))
		require.NoError(t, s.MarkPublished(ctx, n.ID, notification.Succeeded("pub", at.Add(time.Second))))

		failed, err := s.FailedSince(ctx, time.Time{})
		require.NoError(t, err)
		assert.Empty(t, failed)
	})

	t.Run("nil notifications are rejected", func(t *testing.T) {
		s := newStore(t)
		assert.ErrorIs(t, s.Store(ctx, nil), notification.ErrNilNotification)
		assert.ErrorIs(t, s.Store(ctx, (*AccountOpened)(nil)), notification.ErrNilNotification)
	})

	t.Run("notification without id is rejected", func(t *testing.T) {
		s := newStore(t)
		require.ErrorIs(t, s.Store(ctx, AccountOpened{Owner: "one"}), notification.ErrMissingID)
		require.ErrorIs(t, s.Store(ctx, AccountOpened{Owner: "two"}), notification.ErrMissingID)

		pending, err := s.Pending(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("base promoted through an embedded struct", func(t *testing.T) {
		s := newStore(t)
		n := FundsMoved{
			AuditHeader: AuditHeader{Base: notification.NewBase("ledger"), Actor: "ops"},
			Amount:      10,
		}
		require.NoError(t, s.Store(ctx, n))

		at := time.Now().UTC()
		require.NoError(t, s.MarkPublished(ctx, n.ID, notification.Failed("pub", at, "boom")))

		pending, err := s.Pending(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)

		failed, err := s.FailedSince(ctx, at)
		require.NoError(t, err)
		require.Len(t, failed, 1)
		got, ok := failed[0].(FundsMoved)
		require.True(t, ok)
		assert.Equal(t, "ops", got.Actor)
		assert.Equal(t, 10, got.Amount)
		assert.Equal(t, "boom", got.Result.Error)
	})

	t.Run("unregistered types stay readable", func(t *testing.T) {
		s := newStore(t)
		n := unlisted{Base: notification.NewBase("elsewhere"), Note: "kept"}
		other := NewAccountOpened("b")
		require.NoError(t, s.Store(ctx, n))
		require.NoError(t, s.Store(ctx, other))

		pending, err := s.Pending(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		idx := slices.IndexFunc(pending, func(p notification.Notification) bool { return p.Meta().ID == n.ID })
		require.GreaterOrEqual(t, idx, 0)
		got := pending[idx]
		assert.Equal(t, "elsewhere", got.Meta().Sender)
		assert.Equal(t, "unlisted", notification.TypeName(got))

		name, payload, err := notification.Encode(got)
		require.NoError(t, err)
		assert.Equal(t, "unlisted", name)
		assert.Equal(t, "kept", gjson.GetBytes(payload, "note").String())

		at := time.Now().UTC()
		require.NoError(t, s.MarkPublished(ctx, n.ID, notification.Failed("pub", at, notification.NoHandlersMessage)))

		failed, err := s.FailedSince(ctx, at)
		require.NoError(t, err)
		require.Len(t, failed, 1)
		assert.Equal(t, n.ID, failed[0].Meta().ID)
		assert.Equal(t, notification.NoHandlersMessage, failed[0].Meta().Result.Error)
	})

	t.Run("mark published on unknown id", func(t *testing.T) {
		s := newStore(t)
		err := s.MarkPublished(ctx, uuid.New(), notification.Succeeded("pub", time.Now()))
		assert.ErrorIs(t, err, notification.ErrNotFound)
	})
}
