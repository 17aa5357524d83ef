package interception

import (
	"github.com/glimte/aspect-go/capability"
)

// Base gives a synthesized surface its introspection members. Embed it in
// a surface struct and the woven value itself reports its target,
// interceptor and capability set:
//
//	type RepoSurface struct {
//		interception.Base
//		Find func(ctx context.Context, id string) (string, error)
//	}
//
// Surfaces without Base still work; introspection is then only available
// on the Proxy returned by the interceptor.
type Base struct {
	target      any
	interceptor Interceptor
	set         *capability.Set
}

// Target returns the wrapped implementation
func (b *Base) Target() any {
	return b.target
}

// Interceptor returns the strategy that produced this instance
func (b *Base) Interceptor() Interceptor {
	return b.interceptor
}

// Capabilities returns the member set the instance was woven for
func (b *Base) Capabilities() *capability.Set {
	return b.set
}

func (b *Base) bind(target any, interceptor Interceptor, set *capability.Set) {
	b.target = target
	b.interceptor = interceptor
	b.set = set
}

type binder interface {
	bind(target any, interceptor Interceptor, set *capability.Set)
}

type introspector interface {
	Target() any
	Interceptor() Interceptor
	Capabilities() *capability.Set
}

// bindBase fills the embedded Base of a woven instance, if it has one.
func bindBase(instance any, target any, interceptor Interceptor, set *capability.Set) {
	if b, ok := instance.(binder); ok {
		b.bind(target, interceptor, set)
	}
}

// TargetOf returns the implementation behind a woven value. The second
// result is false when the value does not embed Base.
func TargetOf(woven any) (any, bool) {
	if p, ok := woven.(introspector); ok {
		return p.Target(), true
	}
	return nil, false
}

// InterceptorOf returns the strategy behind a woven value
func InterceptorOf(woven any) (Interceptor, bool) {
	if p, ok := woven.(introspector); ok {
		return p.Interceptor(), true
	}
	return nil, false
}

// CapabilitiesOf returns the capability set behind a woven value
func CapabilitiesOf(woven any) (*capability.Set, bool) {
	if p, ok := woven.(introspector); ok {
		return p.Capabilities(), true
	}
	return nil, false
}
