package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/glimte/aspect-go/internal/reliability"
	"github.com/glimte/aspect-go/pipeline"
)

// MetricsCollector defines the interface for collecting invocation metrics
type MetricsCollector interface {
	IncrementCallCount(member string)
	RecordCallDuration(member string, duration time.Duration)
	IncrementFailureCount(member string, errorType string)
}

// MetricsHandler collects metrics about member invocations
type MetricsHandler struct {
	collector MetricsCollector
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(collector MetricsCollector) *MetricsHandler {
	return &MetricsHandler{collector: collector}
}

// Handle implements pipeline.Handler
func (h *MetricsHandler) Handle(ctx context.Context, inv *pipeline.Invocation, next pipeline.Invoker) error {
	start := time.Now()
	member := inv.Member()

	h.collector.IncrementCallCount(member)

	err := next.Invoke(ctx, inv)
	duration := time.Since(start)

	h.collector.RecordCallDuration(member, duration)

	if err != nil {
		h.collector.IncrementFailureCount(member, errorKind(err))
	}

	return err
}

// Name implements pipeline.Handler
func (h *MetricsHandler) Name() string {
	return "MetricsHandler"
}

// errorKind maps an invocation error onto a stable metric label.
func errorKind(err error) string {
	var (
		timeoutErr   *TimeoutError
		validateErr  *ValidationError
		authorizeErr *AuthorizationError
		circuitErr   *reliability.CircuitBreakerError
	)

	switch {
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &validateErr):
		return "validation"
	case errors.As(err, &authorizeErr):
		return "authorization"
	case errors.As(err, &circuitErr):
		return "circuit_open"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline"
	default:
		return "invocation_error"
	}
}
