package interception

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/glimte/aspect-go/capability"
	"github.com/glimte/aspect-go/pipeline"
)

// router is the dispatch core shared by every strategy. For each call it
// builds the invocation, picks the effective handler, and runs the chain
// down to a terminal invoker.
type router struct {
	set      *capability.Set
	global   pipeline.Handler
	registry *pipeline.Registry
	resolver pipeline.HandlerResolver
	policies map[string]string
	logger   *slog.Logger
}

func newRouter(set *capability.Set, global pipeline.Handler, o options) *router {
	return &router{
		set:      set,
		global:   global,
		registry: o.registry,
		resolver: o.resolver,
		logger:   o.logger,
	}
}

// memberPolicies merges the policy tags of the set with the target's own
// policy declarations; the target wins on conflicts.
func memberPolicies(set *capability.Set, target any) map[string]string {
	policies := make(map[string]string)
	for _, m := range set.Methods() {
		if m.Policy != "" {
			policies[m.Name] = m.Policy
		}
	}
	if provider, ok := target.(PolicyProvider); ok {
		for member, policy := range provider.MemberPolicies() {
			policies[member] = policy
		}
	}
	if len(policies) == 0 {
		return nil
	}
	return policies
}

// handlerFor resolves the handler for one member: a policy annotation
// replaces the global handler, and a registry entry then combines with
// that according to the registry mode.
func (r *router) handlerFor(m capability.Method) pipeline.Handler {
	effective := r.global

	if policy, ok := r.policies[m.Name]; ok && policy != "" {
		if r.resolver == nil {
			r.logger.Warn("member policy declared without a resolver",
				"capability", r.set.Name(),
				"member", m.Name,
				"policy", policy,
			)
		} else if h, found := r.resolver.ResolveHandler(policy); found {
			effective = h
		} else {
			r.logger.Warn("member policy is not registered",
				"capability", r.set.Name(),
				"member", m.Name,
				"policy", policy,
			)
		}
	}

	if r.registry != nil {
		return r.registry.HandlerFor(r.set.ID(), m.Name, effective)
	}
	return effective
}

// route runs one member call through the pipeline and returns the result
// slot. Errors come back unchanged from the handler or the
// implementation.
func (r *router) route(ctx context.Context, target any, m capability.Method, args []any, terminal pipeline.Invoker) ([]any, error) {
	inv := pipeline.NewInvocation(r.set, target, m, args)

	var err error
	if h := r.handlerFor(m); h != nil {
		err = h.Handle(ctx, inv, terminal)
	} else {
		err = terminal.Invoke(ctx, inv)
	}
	if err != nil {
		return nil, err
	}

	return inv.Results(), nil
}

// callTarget marshals the invocation arguments onto a resolved method
// value, calls it, and records the outcome on the invocation.
func callTarget(ctx context.Context, fn reflect.Value, dropContext bool, inv *pipeline.Invocation) error {
	m := inv.Method()
	ft := fn.Type()

	in := make([]reflect.Value, 0, ft.NumIn())
	if m.HasContext && !dropContext {
		in = append(in, reflect.ValueOf(ctx))
	}

	for i, a := range inv.Args() {
		pos := len(in)
		var at reflect.Type
		if ft.IsVariadic() && pos >= ft.NumIn()-1 {
			at = ft.In(ft.NumIn() - 1).Elem()
		} else if pos < ft.NumIn() {
			at = ft.In(pos)
		} else {
			return fmt.Errorf("interception: member %s: too many arguments", m.Name)
		}

		if a == nil {
			in = append(in, reflect.Zero(at))
			continue
		}
		av := reflect.ValueOf(a)
		if !av.Type().AssignableTo(at) {
			return fmt.Errorf("interception: member %s argument %d: cannot use %T as %s", m.Name, i, a, at)
		}
		in = append(in, av)
	}

	if ft.IsVariadic() {
		if len(in) < ft.NumIn()-1 {
			return fmt.Errorf("interception: member %s: want at least %d arguments, got %d", m.Name, ft.NumIn()-1, len(in))
		}
	} else if len(in) != ft.NumIn() {
		return fmt.Errorf("interception: member %s: want %d arguments, got %d", m.Name, ft.NumIn(), len(in))
	}

	out := fn.Call(in)
	inv.MarkProceeded()

	var callErr error
	if m.ReturnsError {
		if e := out[len(out)-1]; !e.IsNil() {
			callErr = e.Interface().(error)
		}
		out = out[:len(out)-1]
	}

	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	if err := inv.SetResults(results...); err != nil {
		return err
	}

	return callErr
}

// boundInvoker is a terminal bound to one target method at weave time
type boundInvoker struct {
	fn          reflect.Value
	dropContext bool
}

func bindMethod(target any, m capability.Method) (*boundInvoker, error) {
	mv := reflect.ValueOf(target).MethodByName(m.Name)
	if !mv.IsValid() {
		return nil, fmt.Errorf("interception: target %T has no method %s", target, m.Name)
	}

	drop, err := m.Match(mv.Type())
	if err != nil {
		return nil, fmt.Errorf("interception: %w", err)
	}

	return &boundInvoker{fn: mv, dropContext: drop}, nil
}

// Invoke implements pipeline.Invoker
func (b *boundInvoker) Invoke(ctx context.Context, inv *pipeline.Invocation) error {
	return callTarget(ctx, b.fn, b.dropContext, inv)
}

// forwardInvoker is a terminal that resolves the target method by name on
// every call
type forwardInvoker struct{}

// Invoke implements pipeline.Invoker
func (forwardInvoker) Invoke(ctx context.Context, inv *pipeline.Invocation) error {
	target := inv.Target()
	if target == nil {
		return ErrNoImplementation
	}

	mv := reflect.ValueOf(target).MethodByName(inv.Member())
	if !mv.IsValid() {
		return &UnknownMemberError{Capability: fmt.Sprintf("%T", target), Member: inv.Member()}
	}

	drop, err := inv.Method().Match(mv.Type())
	if err != nil {
		return fmt.Errorf("interception: %w", err)
	}

	return callTarget(ctx, mv, drop, inv)
}

// backingInvoker is a terminal that resolves the implementation through
// the woven instance's BackingProvider on every call, falling back to the
// implementation supplied at weave time.
type backingInvoker struct {
	instance any
	fallback any
}

func (b *backingInvoker) backing() any {
	if provider, ok := b.instance.(BackingProvider); ok {
		if impl := provider.InterceptionBacking(); impl != nil {
			return impl
		}
	}
	return b.fallback
}

// Invoke implements pipeline.Invoker
func (b *backingInvoker) Invoke(ctx context.Context, inv *pipeline.Invocation) error {
	impl := b.backing()
	if impl == nil {
		return ErrNoImplementation
	}

	mv := reflect.ValueOf(impl).MethodByName(inv.Member())
	if !mv.IsValid() {
		return fmt.Errorf("interception: backing %T has no member %s: %w", impl, inv.Member(), ErrNoImplementation)
	}

	drop, err := inv.Method().Match(mv.Type())
	if err != nil {
		return fmt.Errorf("interception: %w", err)
	}

	return callTarget(ctx, mv, drop, inv)
}
