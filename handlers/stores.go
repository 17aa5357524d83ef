package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/viccon/sturdyc"
)

// Entry is one cached member outcome.
type Entry struct {
	Results  []any
	StoredAt time.Time
}

// ResultStore stores member outcomes between calls. Implementations must
// be safe for concurrent use.
type ResultStore interface {
	Get(ctx context.Context, key string) (Entry, bool)
	Set(ctx context.Context, key string, entry Entry)
	Delete(ctx context.Context, key string)
}

// MemoryStore is a ResultStore backed by a plain map. It never evicts;
// use NewSturdycStore when capacity or expiry matters.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory result store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Get implements ResultStore
func (s *MemoryStore) Get(ctx context.Context, key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	return entry, ok
}

// Set implements ResultStore
func (s *MemoryStore) Set(ctx context.Context, key string, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
}

// Delete implements ResultStore
func (s *MemoryStore) Delete(ctx context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// SturdycConfig holds the configuration for the sturdyc-backed store.
type SturdycConfig struct {
	// Capacity defines the maximum number of entries the cache can store.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	NumShards int

	// TTL is the time-to-live for cached entries inside the store.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the cache reaches its capacity. Must be between 1-100.
	EvictionPercentage int
}

func (c SturdycConfig) withDefaults() SturdycConfig {
	if c.Capacity <= 0 {
		c.Capacity = 10000
	}
	if c.NumShards <= 0 {
		c.NumShards = 256
	}
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		c.EvictionPercentage = 10
	}
	return c
}

// SturdycStore is a ResultStore backed by a sharded sturdyc client, giving
// the caching handler capacity limits and store-side expiry.
type SturdycStore struct {
	client *sturdyc.Client[Entry]
}

// NewSturdycStore creates a sturdyc-backed result store. Zero config
// fields fall back to defaults.
func NewSturdycStore(cfg SturdycConfig) *SturdycStore {
	cfg = cfg.withDefaults()
	return &SturdycStore{
		client: sturdyc.New[Entry](cfg.Capacity, cfg.NumShards, cfg.TTL, cfg.EvictionPercentage),
	}
}

// Get implements ResultStore
func (s *SturdycStore) Get(ctx context.Context, key string) (Entry, bool) {
	return s.client.Get(key)
}

// Set implements ResultStore
func (s *SturdycStore) Set(ctx context.Context, key string, entry Entry) {
	s.client.Set(key, entry)
}

// Delete implements ResultStore
func (s *SturdycStore) Delete(ctx context.Context, key string) {
	s.client.Delete(key)
}
