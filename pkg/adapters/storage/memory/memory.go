package memory

import (
	"context"
	"sync"
	"time"

	"github.com/assetcanon/vulnd/pkg/domain"
)

type entry struct {
	enrichment domain.Enrichment
	expiresAt  time.Time
}

// Cache implements EnrichmentCache with an in-process map. Suitable for
// tests and single-node deployments without Redis.
type Cache struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]entry
}

// NewCache creates a new in-memory enrichment cache
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

// Get retrieves a cached enrichment. Expired entries count as misses and
// are dropped lazily.
func (c *Cache) Get(ctx context.Context, key string) (*domain.Enrichment, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}

	enrichment := e.enrichment
	return &enrichment, true, nil
}

// Set stores an enrichment with the configured TTL
func (c *Cache) Set(ctx context.Context, key string, enrichment *domain.Enrichment) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		enrichment: *enrichment,
		expiresAt:  time.Now().Add(c.ttl),
	}
	return nil
}

// Delete removes a cached enrichment
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}
