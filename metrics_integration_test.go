package aspect

import (
	"context"
	"sync"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimte/aspect-go/handlers"
)

// countingCollector is a MetricsCollector for the facade tests.
type countingCollector struct {
	mu        sync.Mutex
	calls     map[string]int
	durations map[string]int
	failures  map[string]map[string]int
}

func newCountingCollector() *countingCollector {
	return &countingCollector{
		calls:     make(map[string]int),
		durations: make(map[string]int),
		failures:  make(map[string]map[string]int),
	}
}

func (c *countingCollector) IncrementCallCount(member string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[member]++
}

func (c *countingCollector) RecordCallDuration(member string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.durations[member]++
}

func (c *countingCollector) IncrementFailureCount(member string, errorType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures[member] == nil {
		c.failures[member] = make(map[string]int)
	}
	c.failures[member][errorType]++
}

func (c *countingCollector) callsFor(member string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[member]
}

func (c *countingCollector) failuresFor(member, kind string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures[member][kind]
}

func TestMetricsIntegration(t *testing.T) {
	ctx := context.Background()

	t.Run("collects per-member metrics through a woven surface", func(t *testing.T) {
		w := New()
		collector := newCountingCollector()
		chain := w.ChainBuilder().WithMetrics(collector).Build()

		surface, err := Weave[InventorySurface](w, newInventory(), chain)
		require.NoError(t, err)

		_, err = surface.Lookup(ctx, "sku-1")
		require.NoError(t, err)
		_, err = surface.Lookup(ctx, "sku-1")
		require.NoError(t, err)
		_, err = surface.Reserve(ctx, "sku-1", 2)
		require.NoError(t, err)

		assert.Equal(t, 2, collector.callsFor("Lookup"))
		assert.Equal(t, 1, collector.callsFor("Reserve"))

		collector.mu.Lock()
		defer collector.mu.Unlock()
		assert.Equal(t, 2, collector.durations["Lookup"])
		assert.Empty(t, collector.failures)
	})

	t.Run("failures are counted by kind", func(t *testing.T) {
		w := New()
		collector := newCountingCollector()
		chain := w.ChainBuilder().
			WithMetrics(collector).
			WithValidation(handlers.NewValidationHandler().
				RuleFor("Lookup", 0, validation.Required)).
			Build()

		surface, err := Weave[InventorySurface](w, newInventory(), chain)
		require.NoError(t, err)

		_, err = surface.Lookup(ctx, "")
		require.Error(t, err)
		_, err = surface.Lookup(ctx, "sku-404")
		require.Error(t, err)

		assert.Equal(t, 1, collector.failuresFor("Lookup", "validation"))
		assert.Equal(t, 1, collector.failuresFor("Lookup", "invocation_error"))
	})

	t.Run("cache hits are still counted as calls", func(t *testing.T) {
		w := New()
		target := newInventory()
		collector := newCountingCollector()
		chain := w.ChainBuilder().
			WithMetrics(collector).
			WithCaching(handlers.NewMemoryStore()).
			Build()

		surface, err := Weave[InventorySurface](w, target, chain)
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			n, err := surface.Lookup(ctx, "sku-1")
			require.NoError(t, err)
			assert.Equal(t, 10, n)
		}

		assert.Equal(t, 3, collector.callsFor("Lookup"))
		assert.Equal(t, 1, target.callCount(), "repeat lookups are served from the cache")
	})
}
