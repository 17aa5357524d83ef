package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/glimte/aspect-go/pipeline"
)

// CachingHandler serves repeated member calls from a result store. A hit
// fills the invocation's result slot and skips the implementation
// entirely, leaving the proceeded flag unset. Only successful calls with
// at least one result are stored; errors are never cached.
type CachingHandler struct {
	store  ResultStore
	keys   KeySerializer
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// CachingOption configures a CachingHandler
type CachingOption func(*CachingHandler)

// WithTTL sets a handler-side expiry on stored results. Zero means
// entries live as long as the store keeps them.
func WithTTL(ttl time.Duration) CachingOption {
	return func(h *CachingHandler) {
		h.ttl = ttl
	}
}

// WithKeySerializer replaces the default cache key serializer.
func WithKeySerializer(keys KeySerializer) CachingOption {
	return func(h *CachingHandler) {
		h.keys = keys
	}
}

// WithCachingLogger sets the logger for the caching handler.
func WithCachingLogger(logger *slog.Logger) CachingOption {
	return func(h *CachingHandler) {
		h.logger = logger
	}
}

// NewCachingHandler creates a caching handler over the given store.
func NewCachingHandler(store ResultStore, opts ...CachingOption) *CachingHandler {
	h := &CachingHandler{
		store:  store,
		keys:   NewDefaultKeySerializer(),
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Handle implements pipeline.Handler
func (h *CachingHandler) Handle(ctx context.Context, inv *pipeline.Invocation, next pipeline.Invoker) error {
	if inv.Method().NumResults() == 0 {
		// Nothing to cache
		return next.Invoke(ctx, inv)
	}

	key := h.keys.SerializeKey(h.memberKey(inv), inv.Args()...)

	if entry, ok := h.store.Get(ctx, key); ok && !h.expired(entry) {
		if err := inv.SetResults(entry.Results...); err == nil {
			h.logger.Debug("cache hit",
				"member", inv.Member(),
				"invocationId", inv.ID(),
				"key", key,
			)
			return nil
		}
		// Arity drift between the stored entry and the member; treat as a miss
		h.store.Delete(ctx, key)
	}

	if err := next.Invoke(ctx, inv); err != nil {
		return err
	}

	h.store.Set(ctx, key, Entry{Results: inv.Results(), StoredAt: h.now()})
	return nil
}

// Name implements pipeline.Handler
func (h *CachingHandler) Name() string {
	return "CachingHandler"
}

// Invalidate drops the stored outcome for one member call. The member
// must be given the same way Handle derives it: qualified with the set
// name when the proxy was woven from a named set ("OrderRepository.Find").
func (h *CachingHandler) Invalidate(ctx context.Context, member string, args ...any) {
	h.store.Delete(ctx, h.keys.SerializeKey(member, args...))
}

func (h *CachingHandler) memberKey(inv *pipeline.Invocation) string {
	if set := inv.Set(); set != nil {
		return set.Name() + "." + inv.Member()
	}
	return inv.Member()
}

func (h *CachingHandler) expired(entry Entry) bool {
	return h.ttl > 0 && h.now().Sub(entry.StoredAt) > h.ttl
}
