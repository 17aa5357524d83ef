// Copyright 2025 Aspect Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package aspect

import (
	"log/slog"
	"reflect"
	"sync"

	"github.com/glimte/aspect-go/capability"
	"github.com/glimte/aspect-go/generation"
	"github.com/glimte/aspect-go/handlers"
	"github.com/glimte/aspect-go/interception"
	"github.com/glimte/aspect-go/pipeline"
)

// Weaver provides the main entry point for aspect-go. It holds the four
// weaving strategies wired to one shared registry, named handler set and
// generation cache, so every proxy it produces resolves member handlers
// and surface plans the same way.
type Weaver struct {
	logger   *slog.Logger
	registry *pipeline.Registry
	named    pipeline.NamedHandlers
	cache    *generation.Cache

	surface *interception.SurfaceInterceptor
	typed   *interception.TypeInterceptor
	forward *interception.ForwardInterceptor
	dynamic *interception.DynamicInterceptor
}

// New creates a new weaver with options
func New(options ...Option) *Weaver {
	cfg := &weaverConfig{
		logger: slog.Default(),
	}

	for _, opt := range options {
		opt(cfg)
	}

	if cfg.registry == nil {
		cfg.registry = pipeline.NewRegistry(
			pipeline.WithMode(cfg.mode),
			pipeline.WithRegistryLogger(cfg.logger),
		)
	}
	if cfg.named == nil {
		cfg.named = pipeline.NewNamedHandlers()
	}
	if cfg.cache == nil {
		cfg.cache = generation.NewCache()
	}

	generator := generation.AsCached(generation.NewGenerator(cfg.logger), cfg.cache)

	shared := []interception.Option{
		interception.WithLogger(cfg.logger),
		interception.WithRegistry(cfg.registry),
		interception.WithResolver(cfg.named),
		interception.WithGenerator(generator),
	}

	return &Weaver{
		logger:   cfg.logger,
		registry: cfg.registry,
		named:    cfg.named,
		cache:    cfg.cache,
		surface:  interception.NewSurfaceInterceptor(shared...),
		typed:    interception.NewTypeInterceptor(shared...),
		forward:  interception.NewForwardInterceptor(shared...),
		dynamic:  interception.NewDynamicInterceptor(shared...),
	}
}

var defaultWeaver = sync.OnceValue(func() *Weaver {
	return New()
})

// Default returns the package-level weaver used when the generic helpers
// are called with a nil Weaver. It is created on first use with default
// options and lives for the life of the process.
func Default() *Weaver {
	return defaultWeaver()
}

// Weave returns an instance of the surface struct S whose members all run
// through handler before reaching the matching method on target. S must
// be a struct whose exported func fields describe the members; target
// must conform to that surface. A nil Weaver uses Default().
func Weave[S any](w *Weaver, target any, handler pipeline.Handler) (*S, error) {
	if w == nil {
		w = Default()
	}

	set, err := capability.FromSurfaceType(reflect.TypeOf((*S)(nil)).Elem())
	if err != nil {
		return nil, err
	}

	proxy, err := w.surface.Intercept(target, set, handler)
	if err != nil {
		return nil, err
	}

	return proxy.(*interception.SurfaceProxy).Surface().(*S), nil
}

// NewOf constructs an instance of the overridable type T with every
// member woven through handler. No implementation is supplied here: the
// chain either short-circuits, or the instance resolves its backing
// through interception.BackingProvider. A nil Weaver uses Default().
func NewOf[T any](w *Weaver, handler pipeline.Handler) (*T, error) {
	if w == nil {
		w = Default()
	}

	set, err := capability.FromSurfaceType(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}

	proxy, err := w.typed.Intercept(nil, set, handler)
	if err != nil {
		return nil, err
	}

	return proxy.(*interception.TypeProxy).Instance().(*T), nil
}

// Intercept weaves target with the first strategy that supports the
// given pair, trying them in Interceptors() order.
func (w *Weaver) Intercept(target any, set *capability.Set, handler pipeline.Handler) (interception.Proxy, error) {
	for _, strategy := range w.Interceptors() {
		if strategy.CanIntercept(target, set) {
			return strategy.Intercept(target, set, handler)
		}
	}

	name := "<nil>"
	if set != nil {
		name = set.Name()
	}
	return nil, &interception.UnsupportedTargetError{
		Strategy:   "Weaver",
		Target:     target,
		Capability: name,
		Reason:     "no strategy supports this target and capability set",
	}
}

// Forward weaves a forwarding proxy exposing the members of the
// interface ifacePtr points at, e.g. (*OrderService)(nil). Member calls
// resolve the target method by name at invocation time.
func (w *Weaver) Forward(target any, ifacePtr any, handler pipeline.Handler) (interception.Proxy, error) {
	set, err := capability.FromInterface(ifacePtr)
	if err != nil {
		return nil, err
	}

	return w.forward.Intercept(target, set, handler)
}

// Dynamic weaves a fully dynamic proxy over target. The capability set is
// derived from the target's exported methods; calls outside it still
// dispatch when the target has a matching method.
func (w *Weaver) Dynamic(target any, handler pipeline.Handler) (*interception.DynamicProxy, error) {
	proxy, err := w.dynamic.Intercept(target, nil, handler)
	if err != nil {
		return nil, err
	}

	return proxy.(*interception.DynamicProxy), nil
}

// Interceptors returns the weaver's strategies in selection order
func (w *Weaver) Interceptors() []interception.Interceptor {
	return []interception.Interceptor{w.surface, w.typed, w.forward, w.dynamic}
}

// Registry returns the member handler registry shared by all strategies
func (w *Weaver) Registry() *pipeline.Registry {
	return w.registry
}

// NamedHandlers returns the policy name registry shared by all strategies
func (w *Weaver) NamedHandlers() pipeline.NamedHandlers {
	return w.named
}

// Cache returns the generation cache shared by all strategies
func (w *Weaver) Cache() *generation.Cache {
	return w.cache
}

// ChainBuilder starts a handler chain wired to the weaver's logger
func (w *Weaver) ChainBuilder() *handlers.ChainBuilder {
	return handlers.NewChainBuilder(w.logger)
}

// weaverConfig holds weaver configuration
type weaverConfig struct {
	logger   *slog.Logger
	registry *pipeline.Registry
	named    pipeline.NamedHandlers
	cache    *generation.Cache
	mode     pipeline.Mode
}

// Option configures the weaver
type Option func(*weaverConfig)

// WithLogger sets the logger for all components
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *weaverConfig) {
		cfg.logger = logger
	}
}

// WithRegistry sets the member handler registry. It replaces the registry
// the weaver would otherwise create, so WithRegistryMode has no effect
// alongside it.
func WithRegistry(registry *pipeline.Registry) Option {
	return func(cfg *weaverConfig) {
		cfg.registry = registry
	}
}

// WithRegistryMode sets how member handlers combine with a proxy's global
// handler in the weaver-owned registry.
func WithRegistryMode(mode pipeline.Mode) Option {
	return func(cfg *weaverConfig) {
		cfg.mode = mode
	}
}

// WithNamedHandlers sets the registry that resolves member policy names
func WithNamedHandlers(named pipeline.NamedHandlers) Option {
	return func(cfg *weaverConfig) {
		cfg.named = named
	}
}

// WithGenerationCache sets the cache that stores synthesized surface
// plans across weaves.
func WithGenerationCache(cache *generation.Cache) Option {
	return func(cfg *weaverConfig) {
		cfg.cache = cache
	}
}
