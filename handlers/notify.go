package handlers

import (
	"context"
	"fmt"

	"github.com/glimte/aspect-go/pipeline"
)

// Change describes a property mutation observed by a
// ChangeNotificationHandler.
type Change struct {
	// Member is the mutating member, e.g. "SetStatus"
	Member string

	// Property is the property being mutated, e.g. "Status"
	Property string

	// Value is the new value the member was called with
	Value any
}

// ChangeListener observes property mutations flowing through a proxy.
// Changing runs before the mutation proceeds and may veto it by returning
// an error. Changed runs only after the mutation succeeded.
type ChangeListener interface {
	Changing(ctx context.Context, change Change) error
	Changed(ctx context.Context, change Change)
}

// ChangeListenerFuncs adapts plain functions to ChangeListener. Nil
// fields are skipped.
type ChangeListenerFuncs struct {
	OnChanging func(ctx context.Context, change Change) error
	OnChanged  func(ctx context.Context, change Change)
}

// Changing implements ChangeListener
func (l ChangeListenerFuncs) Changing(ctx context.Context, change Change) error {
	if l.OnChanging == nil {
		return nil
	}
	return l.OnChanging(ctx, change)
}

// Changed implements ChangeListener
func (l ChangeListenerFuncs) Changed(ctx context.Context, change Change) {
	if l.OnChanged != nil {
		l.OnChanged(ctx, change)
	}
}

// ChangeNotificationHandler raises listener callbacks around property
// mutations. Members that do not follow the property shape
// ("Set<Property>" with one value argument) pass through untouched.
type ChangeNotificationHandler struct {
	listener ChangeListener
}

// NewChangeNotificationHandler creates a new change notification handler
func NewChangeNotificationHandler(listener ChangeListener) *ChangeNotificationHandler {
	return &ChangeNotificationHandler{listener: listener}
}

// Handle implements pipeline.Handler
func (h *ChangeNotificationHandler) Handle(ctx context.Context, inv *pipeline.Invocation, next pipeline.Invoker) error {
	property, ok := inv.Method().PropertyName()
	if !ok {
		return next.Invoke(ctx, inv)
	}

	value, _ := inv.Arg(0)
	change := Change{
		Member:   inv.Member(),
		Property: property,
		Value:    value,
	}

	if err := h.listener.Changing(ctx, change); err != nil {
		return fmt.Errorf("change to %s rejected: %w", property, err)
	}

	err := next.Invoke(ctx, inv)
	if err != nil {
		return err
	}

	h.listener.Changed(ctx, change)
	return nil
}

// Name implements pipeline.Handler
func (h *ChangeNotificationHandler) Name() string {
	return "ChangeNotificationHandler"
}
