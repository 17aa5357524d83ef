package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/glimte/aspect-go/capability"
)

// Mode controls how a member-specific handler combines with the global
// handler of a proxy.
type Mode int

const (
	// ReplaceGlobal runs the member handler instead of the global one
	ReplaceGlobal Mode = iota

	// PrependToGlobal runs the member handler first, then the global one
	PrependToGlobal
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ReplaceGlobal:
		return "replace"
	case PrependToGlobal:
		return "prepend"
	default:
		return "unknown"
	}
}

type memberKey struct {
	set    capability.ID
	member string
}

// Registry associates handlers with individual members of a capability
// set. Registration is keyed by (set identity, member name); the latest
// registration for a key wins. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[memberKey]Handler
	mode    Mode
	logger  *slog.Logger
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithMode sets how member handlers combine with the global handler
func WithMode(mode Mode) RegistryOption {
	return func(r *Registry) {
		r.mode = mode
	}
}

// WithRegistryLogger sets the logger used for registration events
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a new member handler registry
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[memberKey]Handler),
		mode:    ReplaceGlobal,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register binds a handler to one member of a capability set, replacing
// any earlier registration for the same member. Members outside the set's
// derived surface are accepted; they are reachable through dynamic
// proxies.
func (r *Registry) Register(set *capability.Set, member string, handler Handler) *Registry {
	if set == nil || member == "" || handler == nil {
		r.logger.Warn("ignoring incomplete member registration",
			"member", member,
		)
		return r
	}

	if _, known := set.Method(member); !known {
		r.logger.Warn("registering handler for member outside the capability set",
			"capability", set.Name(),
			"member", member,
		)
	}

	r.mu.Lock()
	r.entries[memberKey{set: set.ID(), member: member}] = handler
	r.mu.Unlock()

	r.logger.Debug("registered member handler",
		"capability", set.Name(),
		"member", member,
		"handler", handler.Name(),
	)

	return r
}

// RegisterFunc binds a function-based handler to one member
func (r *Registry) RegisterFunc(set *capability.Set, member string, name string, fn func(ctx context.Context, inv *Invocation, next Invoker) error) *Registry {
	return r.Register(set, member, NewHandlerFunc(name, fn))
}

// Unregister removes the handler bound to a member, if any
func (r *Registry) Unregister(set *capability.Set, member string) {
	if set == nil {
		return
	}

	r.mu.Lock()
	delete(r.entries, memberKey{set: set.ID(), member: member})
	r.mu.Unlock()
}

// Resolve returns the handler registered for a member
func (r *Registry) Resolve(id capability.ID, member string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.entries[memberKey{set: id, member: member}]
	return h, ok
}

// HandlerFor combines the member registration with the global handler
// according to the registry mode. With no registration the global handler
// is returned unchanged; both may be nil.
func (r *Registry) HandlerFor(id capability.ID, member string, global Handler) Handler {
	entry, ok := r.Resolve(id, member)
	if !ok {
		return global
	}

	if r.mode == ReplaceGlobal || global == nil {
		return entry
	}

	return NewChain(r.logger).Add(entry).Add(global)
}

// Mode returns the configured combination mode
func (r *Registry) Mode() Mode {
	return r.mode
}

// Len returns the number of registered member handlers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}
