// Package interception provides the weaving strategies that put a
// handler pipeline between callers and an implementation.
//
// A strategy takes a target, a capability set describing the members to
// intercept, and a handler; it returns a Proxy whose member calls run
// through the handler before reaching the implementation. The strategies
// differ in what they synthesize and when they resolve the target:
//   - SurfaceInterceptor: synthesizes a typed surface struct over a
//     conforming target, with members bound once at weave time
//   - TypeInterceptor: weaves a fresh instance of an overridable type
//     whose func fields are its members; the backing implementation is
//     resolved on every call through BackingProvider
//   - ForwardInterceptor: untyped forwarding over an interface set,
//     resolving target methods by name at call time with no synthesis
//   - DynamicInterceptor: fully dynamic call-by-name access with no
//     up-front conformance checking
//
// Handler resolution is the same everywhere: a member policy (from an
// `aspect` struct tag or a PolicyProvider) replaces the proxy's global
// handler, then a registry entry combines with the result according to
// the registry mode.
//
// Example usage:
//
//	type RepoSurface struct {
//		interception.Base
//		Find func(ctx context.Context, id string) (string, error)
//	}
//
//	set, err := capability.FromSurface(&RepoSurface{})
//	if err != nil {
//		return err
//	}
//
//	proxy, err := interception.NewSurfaceInterceptor().Intercept(repo, set, handler)
//	if err != nil {
//		return err
//	}
//
//	repoView := proxy.(*interception.SurfaceProxy).Surface().(*RepoSurface)
//	value, err := repoView.Find(ctx, "42")
//
// Errors from handlers and implementations travel back to the caller
// unchanged. On members that declare no trailing error result, a typed
// surface has no channel to report a pipeline failure and panics with the
// original error; untyped access through Proxy.Invoke always returns it.
package interception
