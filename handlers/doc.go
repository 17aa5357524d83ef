// Package handlers provides ready-made handlers for common cross-cutting
// concerns around member invocations.
//
// Handlers wrap the pipeline surrounding a proxied member call. Each one
// observes the invocation, decides whether to proceed, and may replace the
// outcome. This package provides:
//   - Built-in handlers for common concerns
//   - Builder pattern for easy chain construction
//   - Interfaces for plugging in external systems (stores, collectors, authorizers)
//
// Built-in handlers:
//   - LoggingHandler: Logs member invocations with timing information
//   - MetricsHandler: Collects call counts, durations and failure counts
//   - RetryHandler: Re-invokes failing members under a retry policy
//   - TimeoutHandler: Bounds member execution time, isolating late results
//   - CachingHandler: Serves repeated calls from a result store
//   - ValidationHandler: Rejects invalid arguments before the member runs
//   - AuthorizationHandler: Rejects calls the authorizer denies
//   - ChangeNotificationHandler: Raises listener callbacks around property mutations
//   - ResultTransformHandler: Rewrites results after the member returns
//   - CircuitBreakerHandler: Blocks members behind an open circuit
//   - ConditionalHandler: Applies another handler only to filtered members
//
// Example usage:
//
//	// Build a handler chain
//	chain := handlers.NewChainBuilder(logger).
//		WithLogging().
//		WithMetrics(collector).
//		WithTimeout(30 * time.Second).
//		WithRetry(reliability.NewFixedDelay(time.Second, 3)).
//		Build()
//
//	// Use it as the handler when weaving a proxy
//	proxy, err := aspect.Weave[OrderSurface](weaver, repo, chain)
//
// Custom handlers implement the pipeline.Handler interface:
//
//	type CustomHandler struct {}
//
//	func (h *CustomHandler) Handle(ctx context.Context, inv *pipeline.Invocation, next pipeline.Invoker) error {
//		// Pre-processing logic
//		err := next.Invoke(ctx, inv)
//		// Post-processing logic
//		return err
//	}
//
//	func (h *CustomHandler) Name() string {
//		return "CustomHandler"
//	}
//
// Handlers run in the order they are added to the chain, with the member's
// real implementation invoked last. This allows for proper nesting of
// concerns.
package handlers
