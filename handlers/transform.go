package handlers

import (
	"context"

	"github.com/glimte/aspect-go/pipeline"
)

// ResultTransform rewrites the outcome of a member call. It runs only
// after the call succeeded; the invocation's result slot is already
// filled and may be replaced through SetResult or SetResults.
type ResultTransform func(ctx context.Context, inv *pipeline.Invocation) error

// ResultTransformHandler rewrites results after the member returns. An
// error from the transform replaces the call's success.
type ResultTransformHandler struct {
	transform ResultTransform
}

// NewResultTransformHandler creates a new result transform handler
func NewResultTransformHandler(transform ResultTransform) *ResultTransformHandler {
	return &ResultTransformHandler{transform: transform}
}

// Handle implements pipeline.Handler
func (h *ResultTransformHandler) Handle(ctx context.Context, inv *pipeline.Invocation, next pipeline.Invoker) error {
	if err := next.Invoke(ctx, inv); err != nil {
		return err
	}

	if h.transform == nil {
		return nil
	}

	return h.transform(ctx, inv)
}

// Name implements pipeline.Handler
func (h *ResultTransformHandler) Name() string {
	return "ResultTransformHandler"
}
