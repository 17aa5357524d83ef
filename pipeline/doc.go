// Package pipeline defines the invocation model that every proxy routes
// member calls through.
//
// A member call is represented by an Invocation: the target, the member
// descriptor, the arguments, and a mutable result slot. Handlers wrap the
// call and decide whether it proceeds:
//   - Handler: processes an invocation and receives the next Invoker
//   - Invoker: continues the call toward the real implementation
//   - Chain: composes handlers so the first added sees the call first
//   - Registry: binds handlers to individual members of a capability set
//   - NamedHandlers: resolves policy names to handlers for
//     metadata-driven proxies
//
// A handler proceeds by calling next, short-circuits by returning without
// calling next (filling the result slot itself), or replaces the outcome
// after next returns. Errors travel back up the chain unchanged; the
// pipeline never wraps them.
//
// Example usage:
//
//	chain := pipeline.NewChain(logger).
//		Add(handlers.NewLoggingHandler(logger)).
//		Add(handlers.NewTimeoutHandler(5 * time.Second))
//
//	err := chain.Execute(ctx, invocation, terminal)
//
// Custom handlers implement the Handler interface:
//
//	type auditHandler struct{}
//
//	func (h *auditHandler) Handle(ctx context.Context, inv *pipeline.Invocation, next pipeline.Invoker) error {
//		// Pre-call logic
//		err := next.Invoke(ctx, inv)
//		// Post-call logic
//		return err
//	}
//
//	func (h *auditHandler) Name() string {
//		return "auditHandler"
//	}
package pipeline
