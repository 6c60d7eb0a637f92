package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// AnalysisCache implements ports.AnalysisCache using Redis. Keys are image
// digests, values the marshaled analysis result.
type AnalysisCache struct {
	client *goredis.Client
	prefix string
}

// NewAnalysisCache creates a new Redis-backed analysis result cache.
func NewAnalysisCache(client *goredis.Client) *AnalysisCache {
	return &AnalysisCache{
		client: client,
		prefix: "analysis:",
	}
}

// Get retrieves a cached analysis result by key.
// Returns nil, nil if the key does not exist.
func (c *AnalysisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis analysis get: %w", err)
	}
	return val, nil
}

// Set stores an analysis result in the cache with TTL.
func (c *AnalysisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.client.Set(ctx, c.prefix+key, value, ttl).Err()
	if err != nil {
		return fmt.Errorf("redis analysis set: %w", err)
	}
	return nil
}
