package pipeline

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/glimte/aspect-go/capability"
)

// Invocation carries a single member call through a handler chain. It
// records the target, the member descriptor, the argument list, and a
// mutable result slot that handlers and the terminal invoker fill in.
//
// An Invocation is owned by one goroutine at a time. A handler that hands
// the call to another goroutine must work on a Clone and copy the results
// back, so an abandoned goroutine can never race the caller.
type Invocation struct {
	id     string
	set    *capability.Set
	target any
	method capability.Method

	args      []any
	results   []any
	resultSet bool
	proceeded bool
}

// NewInvocation creates an invocation for one member call. The context
// travels alongside the invocation through Handle and Invoke; it is never
// part of the argument list.
func NewInvocation(set *capability.Set, target any, method capability.Method, args []any) *Invocation {
	return &Invocation{
		id:      uuid.New().String(),
		set:     set,
		target:  target,
		method:  method,
		args:    args,
		results: make([]any, method.NumResults()),
	}
}

// ID returns the correlation id of this call.
func (inv *Invocation) ID() string {
	return inv.id
}

// Set returns the capability set the member belongs to. It may be nil for
// ad hoc members reached through a dynamic proxy.
func (inv *Invocation) Set() *capability.Set {
	return inv.set
}

// Target returns the wrapped implementation, if any.
func (inv *Invocation) Target() any {
	return inv.target
}

// Method returns the descriptor of the member being invoked.
func (inv *Invocation) Method() capability.Method {
	return inv.method
}

// Member returns the member name.
func (inv *Invocation) Member() string {
	return inv.method.Name
}

// NumArgs returns the number of call arguments.
func (inv *Invocation) NumArgs() int {
	return len(inv.args)
}

// Arg returns the i'th call argument.
func (inv *Invocation) Arg(i int) (any, bool) {
	if i < 0 || i >= len(inv.args) {
		return nil, false
	}
	return inv.args[i], true
}

// Args returns a copy of the argument list.
func (inv *Invocation) Args() []any {
	out := make([]any, len(inv.args))
	copy(out, inv.args)
	return out
}

// SetArg replaces the i'th call argument before the call proceeds.
func (inv *Invocation) SetArg(i int, value any) error {
	if i < 0 || i >= len(inv.args) {
		return fmt.Errorf("pipeline: argument index %d out of range for %s", i, inv.method.Name)
	}
	inv.args[i] = value
	return nil
}

// SetArgs replaces the whole argument list before the call proceeds. The
// value count must match the current arity.
func (inv *Invocation) SetArgs(values ...any) error {
	if len(values) != len(inv.args) {
		return fmt.Errorf("pipeline: %s takes %d arguments, got %d", inv.method.Name, len(inv.args), len(values))
	}
	copy(inv.args, values)
	return nil
}

// Results returns a copy of the result slot.
func (inv *Invocation) Results() []any {
	out := make([]any, len(inv.results))
	copy(out, inv.results)
	return out
}

// Result returns the i'th result value.
func (inv *Invocation) Result(i int) (any, bool) {
	if i < 0 || i >= len(inv.results) {
		return nil, false
	}
	return inv.results[i], true
}

// HasResults reports whether the result slot has been filled, either by
// the real implementation or by a handler that short-circuited.
func (inv *Invocation) HasResults() bool {
	return inv.resultSet
}

// SetResults fills the result slot. Handlers use it to short-circuit a
// call or to replace what the implementation produced. The value count
// must match the member's result arity.
func (inv *Invocation) SetResults(values ...any) error {
	if len(values) != len(inv.results) {
		return fmt.Errorf("pipeline: %s produces %d results, got %d", inv.method.Name, len(inv.results), len(values))
	}
	copy(inv.results, values)
	inv.resultSet = true
	return nil
}

// SetResult replaces the i'th result value.
func (inv *Invocation) SetResult(i int, value any) error {
	if i < 0 || i >= len(inv.results) {
		return fmt.Errorf("pipeline: result index %d out of range for %s", i, inv.method.Name)
	}
	inv.results[i] = value
	inv.resultSet = true
	return nil
}

// Proceeded reports whether the real implementation was reached.
func (inv *Invocation) Proceeded() bool {
	return inv.proceeded
}

// MarkProceeded records that the real implementation ran. Terminal
// invokers call this; handlers that satisfy a call from elsewhere, such
// as a cache, leave it unset.
func (inv *Invocation) MarkProceeded() {
	inv.proceeded = true
}

// Clone returns a copy with its own argument and result slots. The clone
// keeps the correlation id; it is the same logical call.
func (inv *Invocation) Clone() *Invocation {
	c := &Invocation{
		id:        inv.id,
		set:       inv.set,
		target:    inv.target,
		method:    inv.method,
		args:      make([]any, len(inv.args)),
		results:   make([]any, len(inv.results)),
		resultSet: inv.resultSet,
		proceeded: inv.proceeded,
	}
	copy(c.args, inv.args)
	copy(c.results, inv.results)
	return c
}

// CopyOutcome transfers the result slot and proceeded flag from another
// invocation, typically a Clone that finished on a different goroutine.
func (inv *Invocation) CopyOutcome(from *Invocation) {
	copy(inv.results, from.results)
	inv.resultSet = from.resultSet
	inv.proceeded = from.proceeded
}
