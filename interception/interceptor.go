package interception

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/glimte/aspect-go/capability"
	"github.com/glimte/aspect-go/generation"
	"github.com/glimte/aspect-go/pipeline"
)

// ErrNoImplementation is returned when a woven instance is invoked but no
// backing implementation could be resolved, typically because the
// instance was constructed directly instead of through its interceptor.
var ErrNoImplementation = errors.New("interception: no backing implementation resolved")

// Interceptor weaves a handler pipeline around the members of a target
type Interceptor interface {
	// CanIntercept reports whether this strategy can weave the given
	// target and capability set
	CanIntercept(target any, set *capability.Set) bool

	// Intercept weaves the target, routing every member of the set
	// through the handler
	Intercept(target any, set *capability.Set, handler pipeline.Handler) (Proxy, error)

	// Name returns the strategy name for logging and debugging
	Name() string
}

// Proxy is a woven artifact. Every member call on it runs through the
// handler pipeline before reaching the real implementation.
type Proxy interface {
	// Target returns the wrapped implementation, if any
	Target() any

	// Interceptor returns the strategy that produced this proxy
	Interceptor() Interceptor

	// Capabilities returns the member set the proxy exposes
	Capabilities() *capability.Set

	// Invoke calls a member by name through the pipeline
	Invoke(ctx context.Context, member string, args ...any) ([]any, error)
}

// BackingProvider supplies the implementation behind an overridable
// instance. Types woven by the type strategy implement it to point their
// members at a real implementation, usually an injected field.
type BackingProvider interface {
	InterceptionBacking() any
}

// PolicyProvider lets a target declare handler policies for its members.
// The returned map keys are member names, values are policy names
// resolved through the handler resolver.
type PolicyProvider interface {
	MemberPolicies() map[string]string
}

// UnsupportedTargetError reports that a strategy cannot weave a target
type UnsupportedTargetError struct {
	Strategy   string
	Target     any
	Capability string
	Reason     string
	Err        error
}

// Error implements error
func (e *UnsupportedTargetError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s cannot intercept %T for %s: %s: %v", e.Strategy, e.Target, e.Capability, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s cannot intercept %T for %s: %s", e.Strategy, e.Target, e.Capability, e.Reason)
}

// Unwrap returns the underlying error
func (e *UnsupportedTargetError) Unwrap() error {
	return e.Err
}

// IsUnsupportedTarget checks if an error is an UnsupportedTargetError
func IsUnsupportedTarget(err error) bool {
	var ute *UnsupportedTargetError
	return errors.As(err, &ute)
}

// UnknownMemberError reports an invocation of a member the proxy does not
// expose
type UnknownMemberError struct {
	Capability string
	Member     string
}

// Error implements error
func (e *UnknownMemberError) Error() string {
	return fmt.Sprintf("member %s is not part of %s", e.Member, e.Capability)
}

// IsUnknownMember checks if an error is an UnknownMemberError
func IsUnknownMember(err error) bool {
	var ume *UnknownMemberError
	return errors.As(err, &ume)
}

// Option configures an interceptor strategy
type Option func(*options)

type options struct {
	logger    *slog.Logger
	registry  *pipeline.Registry
	resolver  pipeline.HandlerResolver
	generator generation.Generator
}

// WithLogger sets the logger used by the strategy and its proxies
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegistry sets the member handler registry consulted on every call
func WithRegistry(registry *pipeline.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithResolver sets the resolver for member policy names. Defaults to the
// global named handler registry.
func WithResolver(resolver pipeline.HandlerResolver) Option {
	return func(o *options) {
		o.resolver = resolver
	}
}

// WithGenerator sets the surface generator. Defaults to a cached
// generator so repeated weaves of the same capability set share one
// synthesis.
func WithGenerator(generator generation.Generator) Option {
	return func(o *options) {
		o.generator = generator
	}
}

func newOptions(opts ...Option) options {
	o := options{
		resolver: pipeline.GetGlobalNamedHandlers(),
	}

	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.generator == nil {
		o.generator = generation.AsCached(generation.NewGenerator(o.logger), nil)
	}

	return o
}

func handlerTypeOf(handler pipeline.Handler) reflect.Type {
	if handler == nil {
		return nil
	}
	return reflect.TypeOf(handler)
}
