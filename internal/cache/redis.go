package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// responseKey namespaces cache entries so the database can be shared.
func responseKey(key string) string { return "llm:response:" + key }

// Redis is a Store backed by a shared Redis instance, for running
// multiple benchmark processes against one cache.
type Redis struct {
	rdb *redis.Client
}

// NewRedis connects a Redis-backed Store from a connection URL.
func NewRedis(redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{rdb: rdb}, nil
}

// NewRedisFromClient wraps an existing client, for use in tests.
func NewRedisFromClient(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

// Get returns the cached response for key, or (nil, nil) on a miss.
func (c *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, responseKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	return data, nil
}

// Put stores a response under key with no expiry; cached responses
// stay valid as long as the payload that keyed them.
func (c *Redis) Put(ctx context.Context, key string, value []byte) error {
	if err := c.rdb.Set(ctx, responseKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *Redis) Close() error {
	return c.rdb.Close()
}
