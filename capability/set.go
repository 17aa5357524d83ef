package capability

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNoMembers is returned when a declaration yields zero interceptable
// members.
var ErrNoMembers = errors.New("capability: declaration has no interceptable members")

// PolicyTag is the struct tag key that binds a surface member to a named
// handler policy.
const PolicyTag = "aspect"

// ID identifies a capability set. Sets derived from the same origin type
// compare equal, making ID usable as a map key.
type ID struct {
	origin reflect.Type
}

// String returns the origin type name for logging and error messages.
func (id ID) String() string {
	if id.origin == nil {
		return "<nil>"
	}
	return id.origin.String()
}

// Set is an ordered collection of member descriptors derived from an
// interface, a surface struct, or a concrete target type. A Set is
// immutable after construction and safe for concurrent use.
type Set struct {
	name    string
	origin  reflect.Type
	methods []Method
	byName  map[string]int
}

// FromInterface derives a capability set from a pointer to an interface,
// typically a typed nil such as (*Repository)(nil).
func FromInterface(ifacePtr any) (*Set, error) {
	t := reflect.TypeOf(ifacePtr)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Interface {
		return nil, fmt.Errorf("capability: want pointer to interface, got %T", ifacePtr)
	}
	return FromInterfaceType(t.Elem())
}

// FromInterfaceType derives a capability set from an interface type. Each
// interface method becomes one member.
func FromInterfaceType(t reflect.Type) (*Set, error) {
	if t == nil || t.Kind() != reflect.Interface {
		return nil, fmt.Errorf("capability: %v is not an interface type", t)
	}
	if t.NumMethod() == 0 {
		return nil, fmt.Errorf("capability: interface %s: %w", t, ErrNoMembers)
	}

	methods := make([]Method, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		im := t.Method(i)
		m, err := describeFunc(im.Name, im.Type, i, "")
		if err != nil {
			return nil, fmt.Errorf("capability: interface %s: %w", t, err)
		}
		methods = append(methods, m)
	}

	return newSet(t, methods), nil
}

// FromSurface derives a capability set from a surface struct value or a
// pointer to one. Exported func-typed fields become members; other fields
// (embedded state, plain data) are ignored.
func FromSurface(surface any) (*Set, error) {
	t := reflect.TypeOf(surface)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return FromSurfaceType(t)
}

// FromSurfaceType derives a capability set from a surface struct type.
func FromSurfaceType(t reflect.Type) (*Set, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("capability: %v is not a struct type", t)
	}

	var methods []Method
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Type.Kind() != reflect.Func {
			continue
		}
		m, err := describeFunc(f.Name, f.Type, i, f.Tag.Get(PolicyTag))
		if err != nil {
			return nil, fmt.Errorf("capability: surface %s: %w", t, err)
		}
		methods = append(methods, m)
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("capability: surface %s: %w", t, ErrNoMembers)
	}

	return newSet(t, methods), nil
}

// OfTarget derives a capability set from the exported method set of a
// concrete value. Pass the value exactly as it will be intercepted; a
// pointer exposes both pointer and value receiver methods.
func OfTarget(target any) (*Set, error) {
	t := reflect.TypeOf(target)
	if t == nil {
		return nil, fmt.Errorf("capability: target is nil")
	}
	if t.NumMethod() == 0 {
		return nil, fmt.Errorf("capability: target %s: %w", t, ErrNoMembers)
	}

	methods := make([]Method, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		tm := t.Method(i)
		if !tm.IsExported() {
			continue
		}
		// Method expressions carry the receiver as the first parameter;
		// rebuild the signature without it.
		ft := tm.Func.Type()
		ins := make([]reflect.Type, 0, ft.NumIn()-1)
		for j := 1; j < ft.NumIn(); j++ {
			ins = append(ins, ft.In(j))
		}
		outs := make([]reflect.Type, 0, ft.NumOut())
		for j := 0; j < ft.NumOut(); j++ {
			outs = append(outs, ft.Out(j))
		}
		m, err := describeFunc(tm.Name, reflect.FuncOf(ins, outs, ft.IsVariadic()), i, "")
		if err != nil {
			return nil, fmt.Errorf("capability: target %s: %w", t, err)
		}
		methods = append(methods, m)
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("capability: target %s: %w", t, ErrNoMembers)
	}

	return newSet(t, methods), nil
}

func newSet(origin reflect.Type, methods []Method) *Set {
	byName := make(map[string]int, len(methods))
	for i, m := range methods {
		byName[m.Name] = i
	}
	return &Set{
		name:    origin.String(),
		origin:  origin,
		methods: methods,
		byName:  byName,
	}
}

// Name returns the set name, derived from the origin type.
func (s *Set) Name() string {
	return s.name
}

// Origin returns the type the set was derived from.
func (s *Set) Origin() reflect.Type {
	return s.origin
}

// ID returns the set identity.
func (s *Set) ID() ID {
	return ID{origin: s.origin}
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.methods)
}

// Methods returns a copy of the member descriptors in declaration order.
func (s *Set) Methods() []Method {
	out := make([]Method, len(s.methods))
	copy(out, s.methods)
	return out
}

// Method looks up a member by name.
func (s *Set) Method(name string) (Method, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Method{}, false
	}
	return s.methods[i], true
}

// Conforms checks that target implements every member of the set by name
// and signature. Targets may omit a leading context.Context parameter
// that a member declares.
func (s *Set) Conforms(target any) error {
	if target == nil {
		return fmt.Errorf("capability: %s: target is nil", s.name)
	}

	v := reflect.ValueOf(target)
	for _, m := range s.methods {
		mv := v.MethodByName(m.Name)
		if !mv.IsValid() {
			return fmt.Errorf("capability: %s: target %T has no method %s", s.name, target, m.Name)
		}
		if _, err := m.Match(mv.Type()); err != nil {
			return fmt.Errorf("capability: %s: target %T: %w", s.name, target, err)
		}
	}
	return nil
}

// String implements fmt.Stringer.
func (s *Set) String() string {
	return fmt.Sprintf("%s (%d members)", s.name, len(s.methods))
}
