package interception

import (
	"context"
	"reflect"

	"github.com/glimte/aspect-go/capability"
	"github.com/glimte/aspect-go/pipeline"
)

// DynamicInterceptor weaves a fully dynamic proxy: members are resolved
// by name on every call, with no conformance checking up front. It trades
// the safety of the typed strategies for the ability to reach any
// exported method of the target, including methods outside the declared
// capability set. Keep it for the cases that genuinely need it.
type DynamicInterceptor struct {
	opts options
}

// NewDynamicInterceptor creates a dynamic interceptor
func NewDynamicInterceptor(opts ...Option) *DynamicInterceptor {
	return &DynamicInterceptor{opts: newOptions(opts...)}
}

// Name implements Interceptor
func (d *DynamicInterceptor) Name() string {
	return "DynamicInterceptor"
}

// CanIntercept implements Interceptor. Any target with at least one
// exported method qualifies; the set is optional and derived when absent.
func (d *DynamicInterceptor) CanIntercept(target any, set *capability.Set) bool {
	if target == nil {
		return false
	}
	if set != nil {
		return true
	}
	_, err := capability.OfTarget(target)
	return err == nil
}

// Intercept implements Interceptor. A nil set is derived from the
// target's own method set.
func (d *DynamicInterceptor) Intercept(target any, set *capability.Set, handler pipeline.Handler) (Proxy, error) {
	if target == nil {
		return nil, &UnsupportedTargetError{Strategy: d.Name(), Capability: "<nil>", Reason: "target is required"}
	}

	if set == nil {
		derived, err := capability.OfTarget(target)
		if err != nil {
			return nil, &UnsupportedTargetError{
				Strategy:   d.Name(),
				Target:     target,
				Capability: "<derived>",
				Reason:     "cannot derive a capability set from the target",
				Err:        err,
			}
		}
		set = derived
	}

	rt := newRouter(set, handler, d.opts)
	rt.policies = memberPolicies(set, target)

	d.opts.logger.Debug("woven dynamic proxy",
		"capability", set.Name(),
		"target", reflect.TypeOf(target).String(),
	)

	return &DynamicProxy{
		target:      target,
		set:         set,
		interceptor: d,
		router:      rt,
	}, nil
}

// DynamicProxy is the woven artifact of the dynamic strategy
type DynamicProxy struct {
	target      any
	set         *capability.Set
	interceptor Interceptor
	router      *router
}

// Target implements Proxy
func (p *DynamicProxy) Target() any {
	return p.target
}

// Interceptor implements Proxy
func (p *DynamicProxy) Interceptor() Interceptor {
	return p.interceptor
}

// Capabilities implements Proxy
func (p *DynamicProxy) Capabilities() *capability.Set {
	return p.set
}

// Call invokes a member by name. Members inside the capability set use
// their declared descriptor; other exported methods of the target are
// described on the fly. A member that exists in neither place fails with
// UnknownMemberError before any handler runs.
func (p *DynamicProxy) Call(ctx context.Context, member string, args ...any) ([]any, error) {
	m, known := p.set.Method(member)
	if !known {
		mv := reflect.ValueOf(p.target).MethodByName(member)
		if !mv.IsValid() {
			return nil, &UnknownMemberError{Capability: p.set.Name(), Member: member}
		}

		adHoc, err := capability.MethodOf(member, mv.Type())
		if err != nil {
			return nil, err
		}
		m = adHoc
	}

	return p.router.route(ctx, p.target, m, args, forwardInvoker{})
}

// Invoke implements Proxy
func (p *DynamicProxy) Invoke(ctx context.Context, member string, args ...any) ([]any, error) {
	return p.Call(ctx, member, args...)
}
