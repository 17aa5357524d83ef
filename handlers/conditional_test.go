package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimte/aspect-go/pipeline"
)

// markingHandler records the members it handled.
type markingHandler struct {
	handled []string
}

func (h *markingHandler) Handle(ctx context.Context, inv *pipeline.Invocation, next pipeline.Invoker) error {
	h.handled = append(h.handled, inv.Member())
	return next.Invoke(ctx, inv)
}

func (h *markingHandler) Name() string {
	return "markingHandler"
}

func TestConditionalHandler(t *testing.T) {
	t.Run("applies the handler to matching members only", func(t *testing.T) {
		inner := &markingHandler{}
		h := NewConditionalHandler(NewMemberNameFilter("Find"), inner)

		require.NoError(t, h.Handle(context.Background(), newInvocation(t, "Find", "o-1"), succeedWith("widget")))
		require.NoError(t, h.Handle(context.Background(), newInvocation(t, "Ping"), succeedWith()))

		assert.Equal(t, []string{"Find"}, inner.handled)
	})

	t.Run("skipped members still reach next", func(t *testing.T) {
		h := NewConditionalHandler(NewMemberNameFilter("Find"), &markingHandler{})

		inv := newInvocation(t, "Ping")
		require.NoError(t, h.Handle(context.Background(), inv, succeedWith()))
		assert.True(t, inv.Proceeded())
	})

	t.Run("filter errors abort the invocation", func(t *testing.T) {
		boom := errors.New("filter store unavailable")
		h := NewConditionalHandler(MemberFilterFunc(func(ctx context.Context, inv *pipeline.Invocation) (bool, error) {
			return false, boom
		}), &markingHandler{})

		inv := newInvocation(t, "Find", "o-1")
		err := h.Handle(context.Background(), inv, succeedWith("widget"))

		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "member filter")
		assert.False(t, inv.Proceeded())
	})

	t.Run("composite filter requires every condition", func(t *testing.T) {
		argIsSet := MemberFilterFunc(func(ctx context.Context, inv *pipeline.Invocation) (bool, error) {
			arg, ok := inv.Arg(0)
			return ok && arg != "", nil
		})

		filter := NewCompositeFilter(NewMemberNameFilter("Find"), argIsSet)

		ok, err := filter.ShouldHandle(context.Background(), newInvocation(t, "Find", "o-1"))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = filter.ShouldHandle(context.Background(), newInvocation(t, "Find", ""))
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = filter.ShouldHandle(context.Background(), newInvocation(t, "Ping"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("or filter requires any condition", func(t *testing.T) {
		filter := NewOrFilter(NewMemberNameFilter("Find"), NewMemberNameFilter("Ping"))

		ok, err := filter.ShouldHandle(context.Background(), newInvocation(t, "Ping"))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = filter.ShouldHandle(context.Background(), newInvocation(t, "SetStatus", "closed"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Name includes the wrapped handler", func(t *testing.T) {
		h := NewConditionalHandler(NewMemberNameFilter("Find"), &markingHandler{})
		assert.Equal(t, "ConditionalHandler[markingHandler]", h.Name())
	})
}
