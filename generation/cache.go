package generation

import (
	"reflect"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/glimte/aspect-go/capability"
)

// Key identifies one cached surface: the capability set identity plus the
// handler type it was generated for.
type Key struct {
	Set     capability.ID
	Handler reflect.Type
}

// Cache stores generated surfaces keyed by (set identity, handler type).
// Lookups for the same key during an in-flight generation wait for it and
// share the result, so a surface is generated at most once.
type Cache struct {
	entries *xsync.MapOf[Key, *Surface]
}

// NewCache creates an empty surface cache
func NewCache() *Cache {
	return &Cache{entries: xsync.NewMapOf[Key, *Surface]()}
}

// Lookup returns the cached surface for a key, if any
func (c *Cache) Lookup(key Key) (*Surface, bool) {
	return c.entries.Load(key)
}

// Len returns the number of cached surfaces
func (c *Cache) Len() int {
	return c.entries.Size()
}

// Invalidate drops the cached surface for a key
func (c *Cache) Invalidate(key Key) {
	c.entries.Delete(key)
}

// CachedGenerator decorates a Generator with a surface cache. Failed
// generations are never stored; the next caller retries.
type CachedGenerator struct {
	inner Generator
	cache *Cache
}

// AsCached wraps a generator with a cache. A nil cache gets a fresh one.
func AsCached(inner Generator, cache *Cache) *CachedGenerator {
	if cache == nil {
		cache = NewCache()
	}

	return &CachedGenerator{inner: inner, cache: cache}
}

// Cache returns the underlying surface cache
func (g *CachedGenerator) Cache() *Cache {
	return g.cache
}

// Generate implements Generator
func (g *CachedGenerator) Generate(set *capability.Set, handlerType reflect.Type) (*Surface, error) {
	if set == nil {
		return g.inner.Generate(set, handlerType)
	}

	key := Key{Set: set.ID(), Handler: handlerType}

	var genErr error
	surface, _ := g.cache.entries.LoadOrTryCompute(key, func() (*Surface, bool) {
		s, err := g.inner.Generate(set, handlerType)
		if err != nil {
			genErr = err
			return nil, true
		}
		return s, false
	})
	if genErr != nil {
		return nil, genErr
	}

	return surface, nil
}
