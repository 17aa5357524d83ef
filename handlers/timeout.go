package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glimte/aspect-go/pipeline"
)

// TimeoutError reports a member call that exceeded its time limit.
type TimeoutError struct {
	Member string
	Limit  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("member %s timed out after %v", e.Member, e.Limit)
}

// IsTimeout reports whether err carries a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// TimeoutHandler bounds member execution time. The call proceeds on a
// clone of the invocation in a separate goroutine; if it finishes in time
// the outcome is copied back, otherwise the clone is abandoned and can
// never touch the caller's result slot.
type TimeoutHandler struct {
	timeout time.Duration
}

// NewTimeoutHandler creates a new timeout handler
func NewTimeoutHandler(timeout time.Duration) *TimeoutHandler {
	return &TimeoutHandler{timeout: timeout}
}

// Handle implements pipeline.Handler
func (h *TimeoutHandler) Handle(ctx context.Context, inv *pipeline.Invocation, next pipeline.Invoker) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	clone := inv.Clone()
	done := make(chan error, 1)
	go func() {
		done <- next.Invoke(timeoutCtx, clone)
	}()

	select {
	case err := <-done:
		inv.CopyOutcome(clone)
		return err
	case <-timeoutCtx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		return &TimeoutError{Member: inv.Member(), Limit: h.timeout}
	}
}

// Name implements pipeline.Handler
func (h *TimeoutHandler) Name() string {
	return "TimeoutHandler"
}
