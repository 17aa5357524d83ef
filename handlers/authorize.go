package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/glimte/aspect-go/pipeline"
)

// Authorizer decides whether a member call may proceed.
type Authorizer interface {
	Authorize(ctx context.Context, inv *pipeline.Invocation) error
}

// AuthorizerFunc is a function adapter for Authorizer
type AuthorizerFunc func(ctx context.Context, inv *pipeline.Invocation) error

// Authorize implements Authorizer
func (f AuthorizerFunc) Authorize(ctx context.Context, inv *pipeline.Invocation) error {
	return f(ctx, inv)
}

// AuthorizationError reports a member call rejected by an Authorizer.
type AuthorizationError struct {
	Member string
	Err    error
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization failed for %s: %v", e.Member, e.Err)
}

func (e *AuthorizationError) Unwrap() error {
	return e.Err
}

// IsRetryable marks authorization failures as terminal for retry policies.
func (e *AuthorizationError) IsRetryable() bool {
	return false
}

// IsAuthorizationFailure reports whether err carries an AuthorizationError.
func IsAuthorizationFailure(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}

// AuthorizationHandler rejects calls the authorizer denies. A denied call
// never reaches the member's implementation.
type AuthorizationHandler struct {
	authorizer Authorizer
}

// NewAuthorizationHandler creates a new authorization handler
func NewAuthorizationHandler(authorizer Authorizer) *AuthorizationHandler {
	return &AuthorizationHandler{authorizer: authorizer}
}

// Handle implements pipeline.Handler
func (h *AuthorizationHandler) Handle(ctx context.Context, inv *pipeline.Invocation, next pipeline.Invoker) error {
	if err := h.authorizer.Authorize(ctx, inv); err != nil {
		return &AuthorizationError{Member: inv.Member(), Err: err}
	}

	return next.Invoke(ctx, inv)
}

// Name implements pipeline.Handler
func (h *AuthorizationHandler) Name() string {
	return "AuthorizationHandler"
}
