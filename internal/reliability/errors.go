package reliability

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Circuit breaker errors
	ErrUnknownState = errors.New("circuit breaker: unknown state")

	// Retry errors
	ErrNonRetryable = errors.New("retry: error is not retryable")
)

// CircuitBreakerError reports a call blocked by the circuit breaker. Op
// carries the name of the member the breaker was guarding.
type CircuitBreakerError struct {
	State            State
	Op               string
	Failures         int
	FailureThreshold int
	LastFailure      time.Time
	NextRetry        time.Time
}

func (e *CircuitBreakerError) Error() string {
	switch e.State {
	case StateOpen:
		retryIn := time.Until(e.NextRetry).Round(time.Second)
		return fmt.Sprintf("circuit breaker open: %s blocked (failures=%d/%d, retry in %v)",
			e.Op, e.Failures, e.FailureThreshold, retryIn)
	case StateHalfOpen:
		return fmt.Sprintf("circuit breaker half-open: %s limited", e.Op)
	default:
		return fmt.Sprintf("circuit breaker error: %s in state %v", e.Op, e.State)
	}
}

// IsRetryableError checks if an error should be retried
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrNonRetryable) {
		return false
	}

	// Errors can classify themselves
	type retryable interface {
		IsRetryable() bool
	}
	var r retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}

	// Circuit breaker errors might be retryable after timeout
	var cbErr *CircuitBreakerError
	if errors.As(err, &cbErr) {
		return cbErr.State != StateOpen || time.Now().After(cbErr.NextRetry)
	}

	return true
}
