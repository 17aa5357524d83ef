package handlers

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/glimte/aspect-go/pipeline"
)

// ValidationError reports arguments rejected before a member ran.
type ValidationError struct {
	Member string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %v", e.Member, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsRetryable marks validation failures as terminal for retry policies;
// re-invoking a member cannot fix bad input.
func (e *ValidationError) IsRetryable() bool {
	return false
}

// IsValidationFailure reports whether err carries a ValidationError.
func IsValidationFailure(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidationHandler rejects invalid arguments before the member runs. A
// failed rule aborts the invocation without calling next; the member's
// implementation never sees the bad input.
type ValidationHandler struct {
	rules        map[string]map[int][]validation.Rule
	validateArgs bool
}

// NewValidationHandler creates a validation handler with no rules. Add
// per-argument rules with RuleFor, or enable ValidateArgs to run the
// checks arguments declare on themselves.
func NewValidationHandler() *ValidationHandler {
	return &ValidationHandler{
		rules: make(map[string]map[int][]validation.Rule),
	}
}

// RuleFor attaches rules to one argument of one member. The index counts
// call arguments only; a leading context.Context is not an argument.
func (h *ValidationHandler) RuleFor(member string, arg int, rules ...validation.Rule) *ValidationHandler {
	memberRules, ok := h.rules[member]
	if !ok {
		memberRules = make(map[int][]validation.Rule)
		h.rules[member] = memberRules
	}
	memberRules[arg] = append(memberRules[arg], rules...)
	return h
}

// ValidateArgs makes the handler validate every argument that implements
// validation.Validatable or validation.ValidatableWithContext, even when
// no explicit rule is registered for it.
func (h *ValidationHandler) ValidateArgs() *ValidationHandler {
	h.validateArgs = true
	return h
}

// Handle implements pipeline.Handler
func (h *ValidationHandler) Handle(ctx context.Context, inv *pipeline.Invocation, next pipeline.Invoker) error {
	memberRules := h.rules[inv.Member()]

	for i, arg := range inv.Args() {
		rules, ruled := memberRules[i]
		switch {
		case ruled:
			if err := validation.ValidateWithContext(ctx, arg, rules...); err != nil {
				return &ValidationError{
					Member: inv.Member(),
					Err:    fmt.Errorf("argument %d: %w", i, err),
				}
			}
		case h.validateArgs:
			if err := validation.ValidateWithContext(ctx, arg); err != nil {
				return &ValidationError{
					Member: inv.Member(),
					Err:    fmt.Errorf("argument %d: %w", i, err),
				}
			}
		}
	}

	return next.Invoke(ctx, inv)
}

// Name implements pipeline.Handler
func (h *ValidationHandler) Name() string {
	return "ValidationHandler"
}
