package interception

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimte/aspect-go/capability"
	"github.com/glimte/aspect-go/pipeline"
)

type notifier interface {
	Notify(ctx context.Context, msg string) error
	Pending() int
}

type notifierImpl struct {
	sent []string
}

func (n *notifierImpl) Notify(ctx context.Context, msg string) error {
	if msg == "" {
		return errors.New("empty message")
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *notifierImpl) Pending() int {
	return len(n.sent)
}

func (n *notifierImpl) Reset() {
	n.sent = nil
}

type quietNotifier struct {
	sent []string
}

func (n *quietNotifier) Notify(msg string) error {
	n.sent = append(n.sent, msg)
	return nil
}

func (n *quietNotifier) Pending() int {
	return len(n.sent)
}

func notifierSet(t *testing.T) *capability.Set {
	t.Helper()

	set, err := capability.FromInterface((*notifier)(nil))
	require.NoError(t, err)
	return set
}

func TestForwardInterceptor(t *testing.T) {
	t.Run("calls forward by name through the handler", func(t *testing.T) {
		var events []string
		impl := &notifierImpl{}

		proxy, err := NewForwardInterceptor().Intercept(impl, notifierSet(t), recordHandler("global", &events))
		require.NoError(t, err)

		_, err = proxy.Invoke(context.Background(), "Notify", "hello")
		require.NoError(t, err)

		results, err := proxy.Invoke(context.Background(), "Pending")
		require.NoError(t, err)

		assert.Equal(t, []any{1}, results)
		assert.Equal(t, []string{"hello"}, impl.sent)
		assert.Equal(t, []string{"global:Notify", "global:Pending"}, events)
	})

	t.Run("only capability set members are reachable", func(t *testing.T) {
		impl := &notifierImpl{sent: []string{"x"}}

		proxy, err := NewForwardInterceptor().Intercept(impl, notifierSet(t), nil)
		require.NoError(t, err)

		_, err = proxy.Invoke(context.Background(), "Reset")
		assert.True(t, IsUnknownMember(err))
		assert.Equal(t, []string{"x"}, impl.sent, "Reset must not reach the target")
	})

	t.Run("implementation errors pass through unchanged", func(t *testing.T) {
		proxy, err := NewForwardInterceptor().Intercept(&notifierImpl{}, notifierSet(t), nil)
		require.NoError(t, err)

		_, err = proxy.Invoke(context.Background(), "Notify", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty message")
	})

	t.Run("context-less targets conform and run", func(t *testing.T) {
		impl := &quietNotifier{}

		proxy, err := NewForwardInterceptor().Intercept(impl, notifierSet(t), nil)
		require.NoError(t, err)

		_, err = proxy.Invoke(context.Background(), "Notify", "hi")
		require.NoError(t, err)
		assert.Equal(t, []string{"hi"}, impl.sent)
	})

	t.Run("member handlers override per member", func(t *testing.T) {
		set := notifierSet(t)
		var events []string

		registry := pipeline.NewRegistry()
		registry.Register(set, "Notify", recordHandler("member", &events))

		proxy, err := NewForwardInterceptor(WithRegistry(registry)).
			Intercept(&notifierImpl{}, set, recordHandler("global", &events))
		require.NoError(t, err)

		_, err = proxy.Invoke(context.Background(), "Notify", "hello")
		require.NoError(t, err)
		_, err = proxy.Invoke(context.Background(), "Pending")
		require.NoError(t, err)

		assert.Equal(t, []string{"member:Notify", "global:Pending"}, events)
	})

	t.Run("rejects struct-origin sets and nonconforming targets", func(t *testing.T) {
		_, err := NewForwardInterceptor().Intercept(newMemRepo(), repoSet(t), nil)
		assert.True(t, IsUnsupportedTarget(err))

		_, err = NewForwardInterceptor().Intercept(struct{}{}, notifierSet(t), nil)
		assert.True(t, IsUnsupportedTarget(err))

		_, err = NewForwardInterceptor().Intercept(nil, notifierSet(t), nil)
		assert.True(t, IsUnsupportedTarget(err))
	})

	t.Run("proxy exposes its provenance", func(t *testing.T) {
		impl := &notifierImpl{}
		interceptor := NewForwardInterceptor()

		proxy, err := interceptor.Intercept(impl, notifierSet(t), nil)
		require.NoError(t, err)

		assert.Same(t, impl, proxy.Target())
		assert.Same(t, interceptor, proxy.Interceptor())
		assert.Equal(t, notifierSet(t).ID(), proxy.Capabilities().ID())
	})
}
