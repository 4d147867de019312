// internal/common/cache/redis.go
package cache

import (
	"context"
	"fmt"
	"time"

	"web-research-agent/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisCache wraps a Redis client used as a best-effort search-result cache.
// A cache outage is never an error path for the pipeline: callers treat any
// failure as a miss and go to the providers.
type RedisCache struct {
	Client *redis.Client
	ttl    time.Duration
}

// New creates a Redis-backed cache from configuration.
func New(cfg config.CacheConfig) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	return &RedisCache{Client: rdb, ttl: cfg.TTL}, nil
}

// Ping tests the Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// Get retrieves a cached value. A miss returns redis.Nil.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

// Set stores a value under the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}) error {
	return c.Client.Set(ctx, key, value, c.ttl).Err()
}

// IsMiss reports whether err is a plain cache miss rather than an outage.
func IsMiss(err error) bool {
	return err == redis.Nil
}
