package handlers

import (
	"context"
	"sync"

	"github.com/glimte/aspect-go/internal/reliability"
	"github.com/glimte/aspect-go/pipeline"
)

// CircuitBreakerHandler blocks member calls behind an open circuit. A
// shared breaker pools failures across every member of the proxy; a
// per-member handler keeps one breaker per member name so a flaky member
// cannot trip its siblings.
type CircuitBreakerHandler struct {
	shared *reliability.CircuitBreaker

	mu        sync.Mutex
	perMember map[string]*reliability.CircuitBreaker
	options   []reliability.CircuitBreakerOption
}

// NewCircuitBreakerHandler creates a handler around one shared breaker.
func NewCircuitBreakerHandler(cb *reliability.CircuitBreaker) *CircuitBreakerHandler {
	return &CircuitBreakerHandler{shared: cb}
}

// NewPerMemberCircuitBreaker creates a handler that lazily opens one
// breaker per member, each configured with the given options.
func NewPerMemberCircuitBreaker(options ...reliability.CircuitBreakerOption) *CircuitBreakerHandler {
	return &CircuitBreakerHandler{
		perMember: make(map[string]*reliability.CircuitBreaker),
		options:   options,
	}
}

// Handle implements pipeline.Handler
func (h *CircuitBreakerHandler) Handle(ctx context.Context, inv *pipeline.Invocation, next pipeline.Invoker) error {
	cb := h.breakerFor(inv.Member())
	return cb.Execute(ctx, inv.Member(), func() error {
		return next.Invoke(ctx, inv)
	})
}

// Name implements pipeline.Handler
func (h *CircuitBreakerHandler) Name() string {
	return "CircuitBreakerHandler"
}

// Breaker returns the breaker guarding the given member, creating it for
// per-member handlers. Useful for inspecting state in tests and health
// checks.
func (h *CircuitBreakerHandler) Breaker(member string) *reliability.CircuitBreaker {
	return h.breakerFor(member)
}

func (h *CircuitBreakerHandler) breakerFor(member string) *reliability.CircuitBreaker {
	if h.shared != nil {
		return h.shared
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	cb, ok := h.perMember[member]
	if !ok {
		options := append([]reliability.CircuitBreakerOption{reliability.WithName(member)}, h.options...)
		cb = reliability.NewCircuitBreaker(options...)
		h.perMember[member] = cb
	}
	return cb
}
