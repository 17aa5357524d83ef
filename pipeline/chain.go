package pipeline

import (
	"context"
	"log/slog"
)

// Chain manages an ordered sequence of handlers
type Chain struct {
	handlers []Handler
	logger   *slog.Logger
}

// NewChain creates a new handler chain
func NewChain(logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}

	return &Chain{
		handlers: make([]Handler, 0),
		logger:   logger,
	}
}

// Add appends a handler to the chain
func (c *Chain) Add(handler Handler) *Chain {
	c.handlers = append(c.handlers, handler)
	return c
}

// Len returns the number of handlers in the chain
func (c *Chain) Len() int {
	return len(c.handlers)
}

// Execute runs the invocation through every handler in order, ending at
// the final invoker. The first handler added sees the call first.
func (c *Chain) Execute(ctx context.Context, inv *Invocation, final Invoker) error {
	if len(c.handlers) == 0 {
		return final.Invoke(ctx, inv)
	}

	// Build the chain in reverse order
	invoker := final
	for i := len(c.handlers) - 1; i >= 0; i-- {
		handler := c.handlers[i]
		currentInvoker := invoker
		invoker = InvokerFunc(func(ctx context.Context, inv *Invocation) error {
			return handler.Handle(ctx, inv, currentInvoker)
		})
	}

	return invoker.Invoke(ctx, inv)
}

// Handle implements Handler, letting a whole chain stand in anywhere a
// single handler is expected.
func (c *Chain) Handle(ctx context.Context, inv *Invocation, next Invoker) error {
	return c.Execute(ctx, inv, next)
}

// Name implements Handler
func (c *Chain) Name() string {
	return "Chain"
}
