package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/glimte/aspect-go/pipeline"
)

// LoggingHandler logs member invocations
type LoggingHandler struct {
	logger *slog.Logger
}

// NewLoggingHandler creates a new logging handler
func NewLoggingHandler(logger *slog.Logger) *LoggingHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &LoggingHandler{logger: logger}
}

// Handle implements pipeline.Handler
func (h *LoggingHandler) Handle(ctx context.Context, inv *pipeline.Invocation, next pipeline.Invoker) error {
	start := time.Now()

	h.logger.Info("invoking member",
		"member", inv.Member(),
		"invocationId", inv.ID(),
	)

	err := next.Invoke(ctx, inv)
	duration := time.Since(start)

	if err != nil {
		h.logger.Error("member invocation failed",
			"member", inv.Member(),
			"invocationId", inv.ID(),
			"duration", duration,
			"error", err,
		)
	} else {
		h.logger.Info("member invocation completed",
			"member", inv.Member(),
			"invocationId", inv.ID(),
			"duration", duration,
			"proceeded", inv.Proceeded(),
		)
	}

	return err
}

// Name implements pipeline.Handler
func (h *LoggingHandler) Name() string {
	return "LoggingHandler"
}
