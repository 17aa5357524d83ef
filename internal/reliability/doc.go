// Package reliability provides the retry and circuit breaker primitives
// used by the built-in handlers.
//
// This package implements common reliability patterns:
//   - Circuit Breaker: Prevents cascading failures by monitoring error rates
//   - Retry Policies: Configurable retry strategies (exponential backoff, linear, fixed)
//
// Key features:
//   - Thread-safe implementations suitable for concurrent use
//   - Configurable thresholds and timeouts
//   - Support for custom error classification (retryable vs non-retryable)
//
// Example usage:
//
//	// Create a circuit breaker
//	cb := NewCircuitBreaker(
//	    WithFailureThreshold(5),
//	    WithSuccessThreshold(3),
//	    WithTimeout(30 * time.Second),
//	)
//
//	// Use it to protect a function
//	err := cb.Execute(ctx, "FindOrder", func() error {
//	    return riskyOperation()
//	})
package reliability
