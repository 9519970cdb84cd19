package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/assetcanon/vulnd/pkg/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache implements EnrichmentCache using Redis
type Cache struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewCache creates a new Redis enrichment cache
func NewCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// Get retrieves a cached enrichment. A miss returns (nil, false, nil).
func (c *Cache) Get(ctx context.Context, key string) (*domain.Enrichment, bool, error) {
	data, err := c.client.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get enrichment: %w", err)
	}

	var enrichment domain.Enrichment
	if err := json.Unmarshal(data, &enrichment); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal enrichment: %w", err)
	}

	return &enrichment, true, nil
}

// Set stores an enrichment with the configured TTL
func (c *Cache) Set(ctx context.Context, key string, enrichment *domain.Enrichment) error {
	data, err := json.Marshal(enrichment)
	if err != nil {
		return fmt.Errorf("failed to marshal enrichment: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save enrichment: %w", err)
	}

	c.logger.Debug("enrichment cached",
		zap.String("key", key),
		zap.Int("findings", enrichment.FindingCount))

	return nil
}

// Delete removes a cached enrichment
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, cacheKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete enrichment: %w", err)
	}

	return nil
}

// cacheKey returns the Redis key for a vendor/model cache entry
func cacheKey(key string) string {
	return fmt.Sprintf("vulnd:enrichment:%s", key)
}
