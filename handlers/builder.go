package handlers

import (
	"log/slog"
	"time"

	"github.com/glimte/aspect-go/internal/reliability"
	"github.com/glimte/aspect-go/pipeline"
)

// ChainBuilder assembles a handler chain in a fluent style
type ChainBuilder struct {
	chain  *pipeline.Chain
	logger *slog.Logger
}

// NewChainBuilder creates a new builder
func NewChainBuilder(logger *slog.Logger) *ChainBuilder {
	if logger == nil {
		logger = slog.Default()
	}

	return &ChainBuilder{
		chain:  pipeline.NewChain(logger),
		logger: logger,
	}
}

// WithLogging adds a logging handler
func (b *ChainBuilder) WithLogging() *ChainBuilder {
	b.chain.Add(NewLoggingHandler(b.logger))
	return b
}

// WithMetrics adds a metrics handler
func (b *ChainBuilder) WithMetrics(collector MetricsCollector) *ChainBuilder {
	b.chain.Add(NewMetricsHandler(collector))
	return b
}

// WithRetry adds a retry handler
func (b *ChainBuilder) WithRetry(policy reliability.RetryPolicy) *ChainBuilder {
	b.chain.Add(NewRetryHandler(policy).WithLogger(b.logger))
	return b
}

// WithTimeout adds a timeout handler
func (b *ChainBuilder) WithTimeout(timeout time.Duration) *ChainBuilder {
	b.chain.Add(NewTimeoutHandler(timeout))
	return b
}

// WithCaching adds a caching handler over the given store
func (b *ChainBuilder) WithCaching(store ResultStore, opts ...CachingOption) *ChainBuilder {
	opts = append([]CachingOption{WithCachingLogger(b.logger)}, opts...)
	b.chain.Add(NewCachingHandler(store, opts...))
	return b
}

// WithValidation adds a configured validation handler
func (b *ChainBuilder) WithValidation(handler *ValidationHandler) *ChainBuilder {
	b.chain.Add(handler)
	return b
}

// WithAuthorization adds an authorization handler
func (b *ChainBuilder) WithAuthorization(authorizer Authorizer) *ChainBuilder {
	b.chain.Add(NewAuthorizationHandler(authorizer))
	return b
}

// WithChangeNotification adds a change notification handler
func (b *ChainBuilder) WithChangeNotification(listener ChangeListener) *ChainBuilder {
	b.chain.Add(NewChangeNotificationHandler(listener))
	return b
}

// WithResultTransform adds a result transform handler
func (b *ChainBuilder) WithResultTransform(transform ResultTransform) *ChainBuilder {
	b.chain.Add(NewResultTransformHandler(transform))
	return b
}

// WithCircuitBreaker adds a circuit breaker handler around a shared breaker
func (b *ChainBuilder) WithCircuitBreaker(cb *reliability.CircuitBreaker) *ChainBuilder {
	b.chain.Add(NewCircuitBreakerHandler(cb))
	return b
}

// WithConditional adds a handler gated by a member filter
func (b *ChainBuilder) WithConditional(condition MemberFilter, handler pipeline.Handler) *ChainBuilder {
	b.chain.Add(NewConditionalHandler(condition, handler))
	return b
}

// WithCustom adds a custom handler
func (b *ChainBuilder) WithCustom(handler pipeline.Handler) *ChainBuilder {
	b.chain.Add(handler)
	return b
}

// Build returns the built handler chain
func (b *ChainBuilder) Build() *pipeline.Chain {
	return b.chain
}
