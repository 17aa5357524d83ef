package handlers

import (
	"context"
	"log/slog"

	"github.com/glimte/aspect-go/internal/reliability"
	"github.com/glimte/aspect-go/pipeline"
)

// RetryHandler re-invokes failing members under a retry policy. When the
// policy gives up, the last failure is returned as-is so callers see the
// member's own error, not a retry wrapper.
type RetryHandler struct {
	retryPolicy reliability.RetryPolicy
	logger      *slog.Logger
}

// NewRetryHandler creates a new retry handler
func NewRetryHandler(retryPolicy reliability.RetryPolicy) *RetryHandler {
	return &RetryHandler{
		retryPolicy: retryPolicy,
		logger:      slog.Default(),
	}
}

// WithLogger sets the logger for the retry handler
func (h *RetryHandler) WithLogger(logger *slog.Logger) *RetryHandler {
	h.logger = logger
	return h
}

// Handle implements pipeline.Handler
func (h *RetryHandler) Handle(ctx context.Context, inv *pipeline.Invocation, next pipeline.Invoker) error {
	attempt := 0
	return reliability.Retry(ctx, h.retryPolicy, func() error {
		attempt++
		if attempt > 1 {
			h.logger.Debug("retrying member",
				"member", inv.Member(),
				"invocationId", inv.ID(),
				"attempt", attempt,
			)
		}
		return next.Invoke(ctx, inv)
	})
}

// Name implements pipeline.Handler
func (h *RetryHandler) Name() string {
	return "RetryHandler"
}
