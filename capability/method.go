package capability

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Method describes a single interceptable member of a capability set.
// Type is the member's function signature with the receiver stripped.
type Method struct {
	// Name is the member name, unique within its set
	Name string

	// Type is the receiver-less func signature of the member
	Type reflect.Type

	// Index is the member's position within its origin declaration
	// (interface method index or surface struct field index)
	Index int

	// HasContext reports whether the first parameter is a context.Context
	HasContext bool

	// ReturnsError reports whether the last result is an error
	ReturnsError bool

	// Variadic reports whether the member accepts a variadic final argument
	Variadic bool

	// Policy carries the member's handler policy name, taken from the
	// `aspect` struct tag on surface declarations. Empty when untagged.
	Policy string
}

// describeFunc extracts the call traits of a receiver-less func type.
func describeFunc(name string, ft reflect.Type, index int, policy string) (Method, error) {
	if ft == nil || ft.Kind() != reflect.Func {
		return Method{}, fmt.Errorf("member %s is not a function", name)
	}

	m := Method{
		Name:     name,
		Type:     ft,
		Index:    index,
		Variadic: ft.IsVariadic(),
		Policy:   policy,
	}

	if ft.NumIn() > 0 && ft.In(0) == contextType {
		m.HasContext = true
	}
	if ft.NumOut() > 0 && ft.Out(ft.NumOut()-1) == errorType {
		m.ReturnsError = true
	}

	return m, nil
}

// MethodOf describes an ad hoc member from a receiver-less func type.
// Dynamic proxies use it for members resolved outside a derived set; the
// descriptor carries index -1 because it has no origin declaration.
func MethodOf(name string, fn reflect.Type) (Method, error) {
	m, err := describeFunc(name, fn, -1, "")
	if err != nil {
		return Method{}, fmt.Errorf("capability: %w", err)
	}
	return m, nil
}

// NumArgs returns the number of call arguments, excluding any leading
// context.Context parameter.
func (m Method) NumArgs() int {
	n := m.Type.NumIn()
	if m.HasContext {
		n--
	}
	return n
}

// NumResults returns the number of results, excluding any trailing error.
func (m Method) NumResults() int {
	n := m.Type.NumOut()
	if m.ReturnsError {
		n--
	}
	return n
}

// ArgType returns the type of the i'th call argument, with any leading
// context.Context parameter already excluded.
func (m Method) ArgType(i int) reflect.Type {
	if m.HasContext {
		i++
	}
	return m.Type.In(i)
}

// ResultType returns the type of the i'th result, excluding the trailing
// error result if present.
func (m Method) ResultType(i int) reflect.Type {
	return m.Type.Out(i)
}

// PropertyName reports whether the member follows the property mutation
// shape (name "Set<Property>" taking exactly one value argument) and
// returns the property name if so.
func (m Method) PropertyName() (string, bool) {
	if !strings.HasPrefix(m.Name, "Set") || len(m.Name) <= len("Set") {
		return "", false
	}
	if m.NumArgs() != 1 || m.Variadic {
		return "", false
	}
	return strings.TrimPrefix(m.Name, "Set"), true
}

// Match checks whether a target function of type fn can serve as the
// implementation of this member. The target may omit a leading
// context.Context parameter that the member declares; dropContext
// reports that case so callers know not to forward the context value.
func (m Method) Match(fn reflect.Type) (dropContext bool, err error) {
	if fn == nil || fn.Kind() != reflect.Func {
		return false, fmt.Errorf("member %s: implementation is not a function", m.Name)
	}

	want := m.Type
	shift := 0
	if m.HasContext && (fn.NumIn() == 0 || fn.In(0) != contextType) {
		dropContext = true
		shift = 1
	}

	if fn.NumIn() != want.NumIn()-shift {
		return false, fmt.Errorf("member %s: want %d parameters, implementation has %d", m.Name, want.NumIn()-shift, fn.NumIn())
	}
	for i := 0; i < fn.NumIn(); i++ {
		if fn.In(i) != want.In(i+shift) {
			return false, fmt.Errorf("member %s: parameter %d is %s, implementation has %s", m.Name, i, want.In(i+shift), fn.In(i))
		}
	}

	if fn.NumOut() != want.NumOut() {
		return false, fmt.Errorf("member %s: want %d results, implementation has %d", m.Name, want.NumOut(), fn.NumOut())
	}
	for i := 0; i < fn.NumOut(); i++ {
		if fn.Out(i) != want.Out(i) {
			return false, fmt.Errorf("member %s: result %d is %s, implementation has %s", m.Name, i, want.Out(i), fn.Out(i))
		}
	}

	if want.IsVariadic() != fn.IsVariadic() {
		return false, fmt.Errorf("member %s: variadic mismatch", m.Name)
	}

	return dropContext, nil
}
