package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimte/aspect-go/internal/reliability"
	"github.com/glimte/aspect-go/pipeline"
)

func TestAuthorizationHandler(t *testing.T) {
	type principalKey struct{}

	t.Run("allowed calls reach the member", func(t *testing.T) {
		h := NewAuthorizationHandler(AuthorizerFunc(func(ctx context.Context, inv *pipeline.Invocation) error {
			return nil
		}))

		inv := newInvocation(t, "Find", "o-1")
		err := h.Handle(context.Background(), inv, succeedWith("widget"))

		require.NoError(t, err)
		assert.True(t, inv.Proceeded())
	})

	t.Run("denied calls never reach the member", func(t *testing.T) {
		denied := errors.New("missing role orders:read")
		h := NewAuthorizationHandler(AuthorizerFunc(func(ctx context.Context, inv *pipeline.Invocation) error {
			return denied
		}))

		invoked := false
		inv := newInvocation(t, "Find", "o-1")
		err := h.Handle(context.Background(), inv, pipeline.InvokerFunc(func(ctx context.Context, inv *pipeline.Invocation) error {
			invoked = true
			return nil
		}))

		require.Error(t, err)
		assert.False(t, invoked)
		assert.False(t, inv.Proceeded())

		var ae *AuthorizationError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, "Find", ae.Member)
		assert.ErrorIs(t, err, denied)
		assert.Contains(t, err.Error(), "authorization failed for Find")
	})

	t.Run("the authorizer sees the member and its arguments", func(t *testing.T) {
		h := NewAuthorizationHandler(AuthorizerFunc(func(ctx context.Context, inv *pipeline.Invocation) error {
			if inv.Member() != "SetStatus" {
				return nil
			}
			if ctx.Value(principalKey{}) != "admin" {
				return errors.New("only admins change status")
			}
			return nil
		}))

		err := h.Handle(context.Background(), newInvocation(t, "SetStatus", "closed"), succeedWith())
		assert.True(t, IsAuthorizationFailure(err))

		adminCtx := context.WithValue(context.Background(), principalKey{}, "admin")
		err = h.Handle(adminCtx, newInvocation(t, "SetStatus", "closed"), succeedWith())
		assert.NoError(t, err)

		err = h.Handle(context.Background(), newInvocation(t, "Find", "o-1"), succeedWith("widget"))
		assert.NoError(t, err)
	})

	t.Run("authorization failures are not retryable", func(t *testing.T) {
		err := &AuthorizationError{Member: "Find", Err: errors.New("denied")}
		assert.False(t, reliability.IsRetryableError(err))
	})

	t.Run("Name returns handler name", func(t *testing.T) {
		h := NewAuthorizationHandler(AuthorizerFunc(func(ctx context.Context, inv *pipeline.Invocation) error {
			return nil
		}))
		assert.Equal(t, "AuthorizationHandler", h.Name())
	})
}
