package interception

import (
	"context"
	"reflect"

	"github.com/glimte/aspect-go/capability"
	"github.com/glimte/aspect-go/pipeline"
)

// ForwardInterceptor weaves an untyped forwarding proxy over an interface
// capability set. Nothing is synthesized: each call resolves the target
// method by name at invocation time, trading call performance for a
// construction path with no generation step at all.
type ForwardInterceptor struct {
	opts options
}

// NewForwardInterceptor creates a forwarding interceptor
func NewForwardInterceptor(opts ...Option) *ForwardInterceptor {
	return &ForwardInterceptor{opts: newOptions(opts...)}
}

// Name implements Interceptor
func (f *ForwardInterceptor) Name() string {
	return "ForwardInterceptor"
}

// CanIntercept implements Interceptor
func (f *ForwardInterceptor) CanIntercept(target any, set *capability.Set) bool {
	return set != nil &&
		set.Origin().Kind() == reflect.Interface &&
		target != nil &&
		set.Conforms(target) == nil
}

// Intercept implements Interceptor
func (f *ForwardInterceptor) Intercept(target any, set *capability.Set, handler pipeline.Handler) (Proxy, error) {
	if set == nil {
		return nil, &UnsupportedTargetError{Strategy: f.Name(), Target: target, Capability: "<nil>", Reason: "capability set is required"}
	}
	if set.Origin().Kind() != reflect.Interface {
		return nil, &UnsupportedTargetError{
			Strategy:   f.Name(),
			Target:     target,
			Capability: set.Name(),
			Reason:     "capability set must originate from an interface",
		}
	}
	if target == nil {
		return nil, &UnsupportedTargetError{Strategy: f.Name(), Capability: set.Name(), Reason: "target is required"}
	}
	if err := set.Conforms(target); err != nil {
		return nil, &UnsupportedTargetError{
			Strategy:   f.Name(),
			Target:     target,
			Capability: set.Name(),
			Reason:     "target does not conform to the capability set",
			Err:        err,
		}
	}

	rt := newRouter(set, handler, f.opts)
	rt.policies = memberPolicies(set, target)

	f.opts.logger.Debug("woven forwarding proxy",
		"capability", set.Name(),
		"target", reflect.TypeOf(target).String(),
		"members", set.Len(),
	)

	return &ForwardProxy{
		target:      target,
		set:         set,
		interceptor: f,
		router:      rt,
	}, nil
}

// ForwardProxy is the woven artifact of the forwarding strategy. It
// exposes exactly the members of its capability set; anything else on the
// target stays out of reach.
type ForwardProxy struct {
	target      any
	set         *capability.Set
	interceptor Interceptor
	router      *router
}

// Target implements Proxy
func (p *ForwardProxy) Target() any {
	return p.target
}

// Interceptor implements Proxy
func (p *ForwardProxy) Interceptor() Interceptor {
	return p.interceptor
}

// Capabilities implements Proxy
func (p *ForwardProxy) Capabilities() *capability.Set {
	return p.set
}

// Invoke implements Proxy
func (p *ForwardProxy) Invoke(ctx context.Context, member string, args ...any) ([]any, error) {
	m, ok := p.set.Method(member)
	if !ok {
		return nil, &UnknownMemberError{Capability: p.set.Name(), Member: member}
	}

	return p.router.route(ctx, p.target, m, args, forwardInvoker{})
}
