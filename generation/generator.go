package generation

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/glimte/aspect-go/capability"
)

// RouteFunc carries one member call from a synthesized surface into a
// handler pipeline. It receives the call arguments with any leading
// context already split off, and returns exactly the member's result
// values, excluding the trailing error.
type RouteFunc func(ctx context.Context, m capability.Method, args []any) ([]any, error)

// Generator synthesizes a Surface for a capability set and a handler
// type. Implementations must be safe for concurrent use.
type Generator interface {
	Generate(set *capability.Set, handlerType reflect.Type) (*Surface, error)
}

// GenerationError reports that a surface could not be synthesized
type GenerationError struct {
	Capability  string
	HandlerType reflect.Type
	Reason      string
	Err         error
}

// Error implements error
func (e *GenerationError) Error() string {
	handler := "<none>"
	if e.HandlerType != nil {
		handler = e.HandlerType.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("generation failed for %s with handler %s: %s: %v", e.Capability, handler, e.Reason, e.Err)
	}
	return fmt.Sprintf("generation failed for %s with handler %s: %s", e.Capability, handler, e.Reason)
}

// Unwrap returns the underlying error
func (e *GenerationError) Unwrap() error {
	return e.Err
}

type memberPlan struct {
	method capability.Method
	field  int
}

// Surface is a validated synthesis plan for one (capability set, handler
// type) pair. It is immutable once generated, so a single Surface can be
// instantiated any number of times without re-paying synthesis cost.
type Surface struct {
	set         *capability.Set
	handlerType reflect.Type
	structType  reflect.Type
	members     []memberPlan
}

// Set returns the capability set the surface was generated for.
func (s *Surface) Set() *capability.Set {
	return s.set
}

// HandlerType returns the handler type the surface was generated for. It
// may be nil when the proxy runs without a global handler.
func (s *Surface) HandlerType() reflect.Type {
	return s.handlerType
}

// Type returns the struct type whose func fields the surface fills.
func (s *Surface) Type() reflect.Type {
	return s.structType
}

// New instantiates the surface: a fresh struct value whose func fields
// all route through the given RouteFunc. The returned value is a pointer
// to the surface struct type.
//
// When route fails on a member that declares no trailing error result,
// the synthesized member panics with that error; there is no other
// channel to report it through.
func (s *Surface) New(route RouteFunc) (any, error) {
	if route == nil {
		return nil, &GenerationError{
			Capability:  s.set.Name(),
			HandlerType: s.handlerType,
			Reason:      "instantiation requires a route",
		}
	}

	v := reflect.New(s.structType)
	elem := v.Elem()

	for _, plan := range s.members {
		m := plan.method
		elem.Field(plan.field).Set(reflect.MakeFunc(m.Type, func(in []reflect.Value) []reflect.Value {
			return dispatch(m, route, in)
		}))
	}

	return v.Interface(), nil
}

// dispatch adapts one reflect-level call into a route invocation and
// packs the outcome back into the member's result shape.
func dispatch(m capability.Method, route RouteFunc, in []reflect.Value) []reflect.Value {
	ctx := context.Background()
	argStart := 0
	if m.HasContext {
		if c, ok := in[0].Interface().(context.Context); ok && c != nil {
			ctx = c
		}
		argStart = 1
	}

	args := make([]any, 0, len(in)-argStart)
	for i := argStart; i < len(in); i++ {
		// MakeFunc hands the variadic tail over as a slice; flatten it so
		// handlers see the call as the caller wrote it.
		if m.Variadic && i == len(in)-1 {
			tail := in[i]
			for j := 0; j < tail.Len(); j++ {
				args = append(args, tail.Index(j).Interface())
			}
			continue
		}
		args = append(args, in[i].Interface())
	}

	results, err := route(ctx, m, args)
	if err != nil {
		return packError(m, err)
	}

	return packResults(m, results)
}

func packError(m capability.Method, err error) []reflect.Value {
	if !m.ReturnsError {
		panic(fmt.Errorf("member %s has no error result to report: %w", m.Name, err))
	}

	out := make([]reflect.Value, m.Type.NumOut())
	for i := 0; i < m.Type.NumOut()-1; i++ {
		out[i] = reflect.Zero(m.Type.Out(i))
	}
	out[m.Type.NumOut()-1] = reflect.ValueOf(&err).Elem()
	return out
}

func packResults(m capability.Method, results []any) []reflect.Value {
	if len(results) != m.NumResults() {
		panic(fmt.Sprintf("member %s produces %d results, route returned %d", m.Name, m.NumResults(), len(results)))
	}

	out := make([]reflect.Value, m.Type.NumOut())
	for i, r := range results {
		rt := m.ResultType(i)
		if r == nil {
			out[i] = reflect.Zero(rt)
			continue
		}
		rv := reflect.ValueOf(r)
		if !rv.Type().AssignableTo(rt) {
			return packError(m, fmt.Errorf("member %s result %d: cannot use %s as %s", m.Name, i, rv.Type(), rt))
		}
		out[i] = rv
	}
	if m.ReturnsError {
		out[m.Type.NumOut()-1] = reflect.Zero(m.Type.Out(m.Type.NumOut() - 1))
	}
	return out
}

// DefaultGenerator is the default Generator implementation. It validates
// the capability set against its surface struct and precomputes the
// member plans that instantiation replays.
type DefaultGenerator struct {
	logger *slog.Logger
}

// NewGenerator creates a new surface generator
func NewGenerator(logger *slog.Logger) *DefaultGenerator {
	if logger == nil {
		logger = slog.Default()
	}

	return &DefaultGenerator{logger: logger}
}

// Generate implements Generator
func (g *DefaultGenerator) Generate(set *capability.Set, handlerType reflect.Type) (*Surface, error) {
	if set == nil {
		return nil, &GenerationError{Capability: "<nil>", HandlerType: handlerType, Reason: "capability set is required"}
	}

	origin := set.Origin()
	if origin.Kind() != reflect.Struct {
		return nil, &GenerationError{
			Capability:  set.Name(),
			HandlerType: handlerType,
			Reason:      fmt.Sprintf("origin %s is not a surface struct", origin),
		}
	}

	methods := set.Methods()
	members := make([]memberPlan, 0, len(methods))
	for _, m := range methods {
		if m.Index < 0 || m.Index >= origin.NumField() {
			return nil, &GenerationError{
				Capability:  set.Name(),
				HandlerType: handlerType,
				Reason:      fmt.Sprintf("member %s points outside the surface struct", m.Name),
			}
		}
		field := origin.Field(m.Index)
		if field.Type != m.Type {
			return nil, &GenerationError{
				Capability:  set.Name(),
				HandlerType: handlerType,
				Reason:      fmt.Sprintf("member %s drifted from surface field %s", m.Name, field.Name),
			}
		}
		members = append(members, memberPlan{method: m, field: m.Index})
	}

	g.logger.Debug("synthesized surface plan",
		"capability", set.Name(),
		"members", len(members),
		"handlerType", fmt.Sprintf("%v", handlerType),
	)

	return &Surface{
		set:         set,
		handlerType: handlerType,
		structType:  origin,
		members:     members,
	}, nil
}
