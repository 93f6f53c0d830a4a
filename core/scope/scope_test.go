package scope_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/messaging/core/scope"
)

type counter struct{ n int }

func TestGet(t *testing.T) {
	t.Parallel()

	s := scope.New()
	builds := 0
	build := func(*scope.Scope) *counter {
		builds++
		return &counter{}
	}

	first := scope.Get(s, "counter", build)
	second := scope.Get(s, "counter", build)

	assert.Same(t, first, second)
	assert.Equal(t, 1, builds)

	other := scope.Get(scope.New(), "counter", build)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, builds)
}

func TestClose(t *testing.T) {
	t.Parallel()

	t.Run("runs closers in reverse order", func(t *testing.T) {
		t.Parallel()
		s := scope.New()
		var order []int
		s.OnClose(func() error { order = append(order, 1); return nil })
		s.OnClose(func() error { order = append(order, 2); return nil })

		require.NoError(t, s.Close())
		assert.Equal(t, []int{2, 1}, order)
		assert.ErrorIs(t, s.Close(), scope.ErrClosed)
	})

	t.Run("joins closer errors", func(t *testing.T) {
		t.Parallel()
		s := scope.New()
		errA := errors.New("a")
		errB := errors.New("b")
		s.OnClose(func() error { return errA })
		s.OnClose(func() error { return errB })

		err := s.Close()
		assert.ErrorIs(t, err, errA)
		assert.ErrorIs(t, err, errB)
	})
}

func TestEnsure(t *testing.T) {
	t.Parallel()

	t.Run("opens a scope when none is present", func(t *testing.T) {
		t.Parallel()
		ctx, s, release := scope.Ensure(context.Background())
		fromCtx, ok := scope.FromContext(ctx)
		require.True(t, ok)
		assert.Same(t, s, fromCtx)
		require.NoError(t, release())
		assert.ErrorIs(t, s.Close(), scope.ErrClosed)
	})

	t.Run("reuses the scope from context", func(t *testing.T) {
		t.Parallel()
		outer := scope.New()
		ctx := scope.WithScope(context.Background(), outer)
		_, s, release := scope.Ensure(ctx)
		assert.Same(t, outer, s)
		require.NoError(t, release())
		require.NoError(t, outer.Close())
	})
}
