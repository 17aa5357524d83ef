package handlers

import (
	"context"
	"fmt"

	"github.com/glimte/aspect-go/pipeline"
)

// MemberFilter decides whether a handler applies to an invocation
type MemberFilter interface {
	// ShouldHandle returns true if the invocation should be handled
	ShouldHandle(ctx context.Context, inv *pipeline.Invocation) (bool, error)
}

// MemberFilterFunc is a function adapter for MemberFilter
type MemberFilterFunc func(ctx context.Context, inv *pipeline.Invocation) (bool, error)

// ShouldHandle implements MemberFilter
func (f MemberFilterFunc) ShouldHandle(ctx context.Context, inv *pipeline.Invocation) (bool, error) {
	return f(ctx, inv)
}

// MemberNameFilter matches invocations by member name
type MemberNameFilter struct {
	allowed map[string]bool
}

// NewMemberNameFilter creates a filter that matches only the named members
func NewMemberNameFilter(members ...string) *MemberNameFilter {
	allowed := make(map[string]bool)
	for _, m := range members {
		allowed[m] = true
	}
	return &MemberNameFilter{allowed: allowed}
}

// ShouldHandle implements MemberFilter
func (f *MemberNameFilter) ShouldHandle(ctx context.Context, inv *pipeline.Invocation) (bool, error) {
	return f.allowed[inv.Member()], nil
}

// CompositeFilter combines multiple filters with AND logic
type CompositeFilter struct {
	filters []MemberFilter
}

// NewCompositeFilter creates a new composite filter
func NewCompositeFilter(filters ...MemberFilter) *CompositeFilter {
	return &CompositeFilter{filters: filters}
}

// ShouldHandle implements MemberFilter - all filters must return true
func (f *CompositeFilter) ShouldHandle(ctx context.Context, inv *pipeline.Invocation) (bool, error) {
	for _, filter := range f.filters {
		ok, err := filter.ShouldHandle(ctx, inv)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// OrFilter combines multiple filters with OR logic
type OrFilter struct {
	filters []MemberFilter
}

// NewOrFilter creates a new OR filter
func NewOrFilter(filters ...MemberFilter) *OrFilter {
	return &OrFilter{filters: filters}
}

// ShouldHandle implements MemberFilter - at least one filter must return true
func (f *OrFilter) ShouldHandle(ctx context.Context, inv *pipeline.Invocation) (bool, error) {
	for _, filter := range f.filters {
		ok, err := filter.ShouldHandle(ctx, inv)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// ConditionalHandler applies another handler only to invocations the
// filter matches; everything else goes straight to next.
type ConditionalHandler struct {
	condition MemberFilter
	handler   pipeline.Handler
}

// NewConditionalHandler creates a new conditional handler
func NewConditionalHandler(condition MemberFilter, handler pipeline.Handler) *ConditionalHandler {
	return &ConditionalHandler{
		condition: condition,
		handler:   handler,
	}
}

// Handle implements pipeline.Handler
func (h *ConditionalHandler) Handle(ctx context.Context, inv *pipeline.Invocation, next pipeline.Invoker) error {
	ok, err := h.condition.ShouldHandle(ctx, inv)
	if err != nil {
		return fmt.Errorf("member filter: %w", err)
	}

	if ok {
		return h.handler.Handle(ctx, inv, next)
	}

	return next.Invoke(ctx, inv)
}

// Name implements pipeline.Handler
func (h *ConditionalHandler) Name() string {
	return fmt.Sprintf("ConditionalHandler[%s]", h.handler.Name())
}
