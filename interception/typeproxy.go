package interception

import (
	"context"
	"reflect"

	"github.com/glimte/aspect-go/capability"
	"github.com/glimte/aspect-go/pipeline"
)

// TypeInterceptor weaves an instance of an overridable type: a struct
// whose exported func fields are its interceptable members. The woven
// instance carries the pipeline in those fields; plain methods on the
// same type stay untouched and are never intercepted.
//
// The implementation behind the members is resolved on every call through
// the instance's BackingProvider, so an implementation injected after
// construction is picked up. Without a provider, the target given at
// weave time serves as the backing; with neither, calls fail with
// ErrNoImplementation.
type TypeInterceptor struct {
	opts options
}

// NewTypeInterceptor creates a type interceptor
func NewTypeInterceptor(opts ...Option) *TypeInterceptor {
	return &TypeInterceptor{opts: newOptions(opts...)}
}

// Name implements Interceptor
func (t *TypeInterceptor) Name() string {
	return "TypeInterceptor"
}

// CanIntercept implements Interceptor. The target is optional for this
// strategy; it weaves fresh instances.
func (t *TypeInterceptor) CanIntercept(target any, set *capability.Set) bool {
	return set != nil && set.Origin().Kind() == reflect.Struct
}

// Intercept implements Interceptor. The target, when given, becomes the
// fallback backing implementation.
func (t *TypeInterceptor) Intercept(target any, set *capability.Set, handler pipeline.Handler) (Proxy, error) {
	if set == nil {
		return nil, &UnsupportedTargetError{Strategy: t.Name(), Target: target, Capability: "<nil>", Reason: "capability set is required"}
	}
	if set.Origin().Kind() != reflect.Struct {
		return nil, &UnsupportedTargetError{
			Strategy:   t.Name(),
			Target:     target,
			Capability: set.Name(),
			Reason:     "capability set must originate from an overridable struct",
		}
	}

	surface, err := t.opts.generator.Generate(set, handlerTypeOf(handler))
	if err != nil {
		return nil, err
	}

	rt := newRouter(set, handler, t.opts)
	terminal := &backingInvoker{fallback: target}

	instance, err := surface.New(func(ctx context.Context, m capability.Method, args []any) ([]any, error) {
		return rt.route(ctx, terminal.backing(), m, args, terminal)
	})
	if err != nil {
		return nil, err
	}

	terminal.instance = instance
	rt.policies = memberPolicies(set, instance)

	bindBase(instance, target, t, set)

	t.opts.logger.Debug("woven overridable instance",
		"capability", set.Name(),
		"members", set.Len(),
	)

	return &TypeProxy{
		instance:    instance,
		set:         set,
		interceptor: t,
		router:      rt,
		terminal:    terminal,
	}, nil
}

// InterceptType weaves an instance of the overridable struct type rt
// without a pre-built capability set. Convenience over Intercept for
// callers that start from a reflect.Type.
func (t *TypeInterceptor) InterceptType(rt reflect.Type, handler pipeline.Handler) (*TypeProxy, error) {
	set, err := capability.FromSurfaceType(rt)
	if err != nil {
		return nil, err
	}

	proxy, err := t.Intercept(nil, set, handler)
	if err != nil {
		return nil, err
	}
	return proxy.(*TypeProxy), nil
}

// TypeProxy is the woven artifact of the type strategy
type TypeProxy struct {
	instance    any
	set         *capability.Set
	interceptor Interceptor
	router      *router
	terminal    *backingInvoker
}

// Instance returns the woven instance of the overridable type
func (p *TypeProxy) Instance() any {
	return p.instance
}

// Target implements Proxy. It returns the backing implementation the
// next call would reach, which may change between calls.
func (p *TypeProxy) Target() any {
	return p.terminal.backing()
}

// Interceptor implements Proxy
func (p *TypeProxy) Interceptor() Interceptor {
	return p.interceptor
}

// Capabilities implements Proxy
func (p *TypeProxy) Capabilities() *capability.Set {
	return p.set
}

// Invoke implements Proxy
func (p *TypeProxy) Invoke(ctx context.Context, member string, args ...any) ([]any, error) {
	m, ok := p.set.Method(member)
	if !ok {
		return nil, &UnknownMemberError{Capability: p.set.Name(), Member: member}
	}

	return p.router.route(ctx, p.terminal.backing(), m, args, p.terminal)
}
