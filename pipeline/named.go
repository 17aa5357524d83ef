package pipeline

import (
	"fmt"
	"sync"
)

// HandlerResolver resolves handler policy names to handlers. Dynamic and
// metadata-driven proxies use it to turn a policy annotation into a
// runnable handler.
type HandlerResolver interface {
	// ResolveHandler retrieves the handler registered under a policy name
	ResolveHandler(name string) (Handler, bool)
}

// NamedHandlers manages handler registrations by policy name
type NamedHandlers interface {
	HandlerResolver

	// RegisterHandler registers a handler under a policy name
	RegisterHandler(name string, handler Handler) error

	// RegisterNamed registers a handler under its own Name()
	RegisterNamed(handler Handler) error

	// IsRegistered checks if a policy name is registered
	IsRegistered(name string) bool

	// ListHandlers returns all registered policy names
	ListHandlers() []string
}

// DefaultNamedHandlers is the default implementation of NamedHandlers
type DefaultNamedHandlers struct {
	handlers map[string]Handler
	mu       sync.RWMutex
}

// NewNamedHandlers creates a new named handler registry
func NewNamedHandlers() *DefaultNamedHandlers {
	return &DefaultNamedHandlers{
		handlers: make(map[string]Handler),
	}
}

// RegisterHandler registers a handler under a policy name
func (r *DefaultNamedHandlers) RegisterHandler(name string, handler Handler) error {
	if name == "" {
		return fmt.Errorf("policy name cannot be empty")
	}

	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate registration
	if existing, exists := r.handlers[name]; exists {
		if existing == handler {
			// Same handler, ignore
			return nil
		}
		return fmt.Errorf("policy name %s already registered to %s", name, existing.Name())
	}

	r.handlers[name] = handler

	return nil
}

// RegisterNamed registers a handler under its own Name()
func (r *DefaultNamedHandlers) RegisterNamed(handler Handler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	return r.RegisterHandler(handler.Name(), handler)
}

// ResolveHandler retrieves the handler registered under a policy name
func (r *DefaultNamedHandlers) ResolveHandler(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, exists := r.handlers[name]
	return h, exists
}

// IsRegistered checks if a policy name is registered
func (r *DefaultNamedHandlers) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.handlers[name]
	return exists
}

// ListHandlers returns all registered policy names
func (r *DefaultNamedHandlers) ListHandlers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}

	return names
}

// Global named handler registry instance
var globalNamedHandlers = NewNamedHandlers()

// GetGlobalNamedHandlers returns the global named handler registry
func GetGlobalNamedHandlers() NamedHandlers {
	return globalNamedHandlers
}
