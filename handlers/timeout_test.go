package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimte/aspect-go/pipeline"
)

func TestTimeoutHandler(t *testing.T) {
	t.Run("passes fast calls through with their outcome", func(t *testing.T) {
		h := NewTimeoutHandler(time.Second)

		inv := newInvocation(t, "Find", "o-1")
		err := h.Handle(context.Background(), inv, succeedWith("widget"))

		require.NoError(t, err)
		assert.True(t, inv.Proceeded())
		result, ok := inv.Result(0)
		require.True(t, ok)
		assert.Equal(t, "widget", result)
	})

	t.Run("returns TimeoutError when the member overruns", func(t *testing.T) {
		h := NewTimeoutHandler(20 * time.Millisecond)

		inv := newInvocation(t, "Find", "o-1")
		err := h.Handle(context.Background(), inv, pipeline.InvokerFunc(func(ctx context.Context, inv *pipeline.Invocation) error {
			select {
			case <-time.After(time.Second):
				inv.MarkProceeded()
				return inv.SetResults("late")
			case <-ctx.Done():
				return ctx.Err()
			}
		}))

		require.Error(t, err)
		assert.True(t, IsTimeout(err))

		var te *TimeoutError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "Find", te.Member)
		assert.Equal(t, 20*time.Millisecond, te.Limit)
		assert.Contains(t, err.Error(), "timed out after")
	})

	t.Run("an abandoned call cannot touch the caller's results", func(t *testing.T) {
		h := NewTimeoutHandler(20 * time.Millisecond)

		release := make(chan struct{})
		inv := newInvocation(t, "Find", "o-1")
		err := h.Handle(context.Background(), inv, pipeline.InvokerFunc(func(ctx context.Context, inner *pipeline.Invocation) error {
			<-release
			inner.MarkProceeded()
			return inner.SetResults("late")
		}))

		assert.True(t, IsTimeout(err))

		// Let the straggler finish, then confirm it wrote to the clone only.
		close(release)
		time.Sleep(20 * time.Millisecond)
		assert.False(t, inv.Proceeded())
		assert.False(t, inv.HasResults())
	})

	t.Run("member errors pass through unchanged", func(t *testing.T) {
		h := NewTimeoutHandler(time.Second)

		boom := errors.New("storage offline")
		err := h.Handle(context.Background(), newInvocation(t, "Find", "o-1"), failWith(boom))
		assert.Equal(t, boom, err)
		assert.False(t, IsTimeout(err))
	})

	t.Run("caller cancellation is not reported as a timeout", func(t *testing.T) {
		h := NewTimeoutHandler(time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		err := h.Handle(ctx, newInvocation(t, "Ping"), pipeline.InvokerFunc(func(ctx context.Context, inv *pipeline.Invocation) error {
			<-ctx.Done()
			return ctx.Err()
		}))

		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, IsTimeout(err))
	})

	t.Run("Name returns handler name", func(t *testing.T) {
		h := NewTimeoutHandler(time.Second)
		assert.Equal(t, "TimeoutHandler", h.Name())
	})
}
