// Package cache implements ports.Cache on Redis and caches journal
// configurations read on every webhook and request.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
	"github.com/jsamuelsen/fee-quotation-service/internal/ports"
)

// Config configures the Redis connection.
type Config struct {
	// URL is a redis:// connection URL.
	URL string

	// Prefix namespaces every key.
	Prefix string
}

// RedisCache is a ports.Cache backed by Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// Compile-time interface checks.
var (
	_ ports.Cache           = (*RedisCache)(nil)
	_ ports.OptionalChecker = (*RedisCache)(nil)
)

// NewRedisCache connects using cfg.URL.
func NewRedisCache(cfg Config) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	return NewRedisCacheWithClient(redis.NewClient(opts), cfg.Prefix), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// Get returns domain.ErrNotFound on a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}

	if err != nil {
		return nil, domain.NewUnavailableError("redis", err.Error())
	}

	return value, nil
}

// Set stores value; a zero ttl keeps it until deleted.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return domain.NewUnavailableError("redis", err.Error())
	}

	return nil
}

// Delete removes key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return domain.NewUnavailableError("redis", err.Error())
	}

	return nil
}

// Close closes the connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Name implements ports.HealthChecker.
func (c *RedisCache) Name() string { return "redis" }

// Check pings the server.
func (c *RedisCache) Check(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Optional marks the cache as non-critical: reads fall through to the database.
func (c *RedisCache) Optional() bool { return true }
