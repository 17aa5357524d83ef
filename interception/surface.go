package interception

import (
	"context"
	"reflect"

	"github.com/glimte/aspect-go/capability"
	"github.com/glimte/aspect-go/generation"
	"github.com/glimte/aspect-go/pipeline"
)

// SurfaceInterceptor weaves a typed surface around a conforming target.
// The capability set must originate from a surface struct; the woven
// value is an instance of that struct with every member routed through
// the handler pipeline before reaching the target.
type SurfaceInterceptor struct {
	opts options
}

// NewSurfaceInterceptor creates a surface interceptor
func NewSurfaceInterceptor(opts ...Option) *SurfaceInterceptor {
	return &SurfaceInterceptor{opts: newOptions(opts...)}
}

// Name implements Interceptor
func (s *SurfaceInterceptor) Name() string {
	return "SurfaceInterceptor"
}

// CanIntercept implements Interceptor
func (s *SurfaceInterceptor) CanIntercept(target any, set *capability.Set) bool {
	return set != nil &&
		set.Origin().Kind() == reflect.Struct &&
		target != nil &&
		set.Conforms(target) == nil
}

// Intercept implements Interceptor
func (s *SurfaceInterceptor) Intercept(target any, set *capability.Set, handler pipeline.Handler) (Proxy, error) {
	if set == nil {
		return nil, &UnsupportedTargetError{Strategy: s.Name(), Target: target, Capability: "<nil>", Reason: "capability set is required"}
	}
	if set.Origin().Kind() != reflect.Struct {
		return nil, &UnsupportedTargetError{
			Strategy:   s.Name(),
			Target:     target,
			Capability: set.Name(),
			Reason:     "capability set must originate from a surface struct",
		}
	}
	if target == nil {
		return nil, &UnsupportedTargetError{Strategy: s.Name(), Capability: set.Name(), Reason: "target is required"}
	}
	if err := set.Conforms(target); err != nil {
		return nil, &UnsupportedTargetError{
			Strategy:   s.Name(),
			Target:     target,
			Capability: set.Name(),
			Reason:     "target does not conform to the capability set",
			Err:        err,
		}
	}

	// Bind every member to its target method once; calls replay the
	// binding instead of resolving by name again.
	terminals := make(map[string]pipeline.Invoker, set.Len())
	for _, m := range set.Methods() {
		terminal, err := bindMethod(target, m)
		if err != nil {
			return nil, &UnsupportedTargetError{
				Strategy:   s.Name(),
				Target:     target,
				Capability: set.Name(),
				Reason:     "member binding failed",
				Err:        err,
			}
		}
		terminals[m.Name] = terminal
	}

	surface, err := s.opts.generator.Generate(set, handlerTypeOf(handler))
	if err != nil {
		return nil, err
	}

	rt := newRouter(set, handler, s.opts)
	rt.policies = memberPolicies(set, target)

	instance, err := surface.New(func(ctx context.Context, m capability.Method, args []any) ([]any, error) {
		return rt.route(ctx, target, m, args, terminals[m.Name])
	})
	if err != nil {
		return nil, err
	}

	bindBase(instance, target, s, set)

	s.opts.logger.Debug("woven surface proxy",
		"capability", set.Name(),
		"target", reflect.TypeOf(target).String(),
		"members", set.Len(),
	)

	return &SurfaceProxy{
		instance:    instance,
		target:      target,
		set:         set,
		interceptor: s,
		router:      rt,
		terminals:   terminals,
	}, nil
}

// Generator exposes the strategy's surface generator, letting callers
// share its cache or inspect it in tests.
func (s *SurfaceInterceptor) Generator() generation.Generator {
	return s.opts.generator
}

// SurfaceProxy is the woven artifact of the surface strategy. Surface
// returns the typed instance; Invoke offers untyped access to the same
// pipeline.
type SurfaceProxy struct {
	instance    any
	target      any
	set         *capability.Set
	interceptor Interceptor
	router      *router
	terminals   map[string]pipeline.Invoker
}

// Surface returns the woven surface struct instance
func (p *SurfaceProxy) Surface() any {
	return p.instance
}

// Target implements Proxy
func (p *SurfaceProxy) Target() any {
	return p.target
}

// Interceptor implements Proxy
func (p *SurfaceProxy) Interceptor() Interceptor {
	return p.interceptor
}

// Capabilities implements Proxy
func (p *SurfaceProxy) Capabilities() *capability.Set {
	return p.set
}

// Invoke implements Proxy
func (p *SurfaceProxy) Invoke(ctx context.Context, member string, args ...any) ([]any, error) {
	m, ok := p.set.Method(member)
	if !ok {
		return nil, &UnknownMemberError{Capability: p.set.Name(), Member: member}
	}

	return p.router.route(ctx, p.target, m, args, p.terminals[member])
}
