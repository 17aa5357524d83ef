package pipeline

import (
	"context"
)

// Invoker continues an invocation toward the real implementation
type Invoker interface {
	Invoke(ctx context.Context, inv *Invocation) error
}

// InvokerFunc is a function adapter for Invoker
type InvokerFunc func(ctx context.Context, inv *Invocation) error

// Invoke implements Invoker
func (f InvokerFunc) Invoke(ctx context.Context, inv *Invocation) error {
	return f(ctx, inv)
}

// Handler processes an invocation before it reaches the implementation.
// A handler proceeds by calling next, observes or replaces the outcome
// afterwards, or short-circuits by returning without calling next.
type Handler interface {
	// Handle processes an invocation and calls the next invoker in the chain
	Handle(ctx context.Context, inv *Invocation, next Invoker) error

	// Name returns the handler name for logging and debugging
	Name() string
}

// HandlerFunc is a function adapter for Handler
type HandlerFunc struct {
	name string
	fn   func(ctx context.Context, inv *Invocation, next Invoker) error
}

// NewHandlerFunc creates a new function-based handler
func NewHandlerFunc(name string, fn func(ctx context.Context, inv *Invocation, next Invoker) error) *HandlerFunc {
	return &HandlerFunc{name: name, fn: fn}
}

// Handle implements Handler
func (h *HandlerFunc) Handle(ctx context.Context, inv *Invocation, next Invoker) error {
	return h.fn(ctx, inv, next)
}

// Name implements Handler
func (h *HandlerFunc) Name() string {
	return h.name
}
