package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/okian/cartola/internal/domain/model"
	"github.com/okian/cartola/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the redis key of the cached payload.
const DefaultKey = "cartola:payload"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisOption applies a configuration option to the RedisCache.
type RedisOption func(*RedisCache)

// WithKey sets the redis key.
func WithKey(key string) RedisOption {
	return func(c *RedisCache) {
		if key != "" {
			c.key = key
		}
	}
}

// RedisCache shares the payload between replicas. Freshness is enforced by
// the key expiry.
type RedisCache struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration, opts ...RedisOption) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &RedisCache{client: client, key: DefaultKey, ttl: ttl}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DialRedis parses url, connects and pings the server.
func DialRedis(ctx context.Context, url string, ttl time.Duration, opts ...RedisOption) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisCache(client, ttl, opts...), nil
}

// Get implements PayloadCache.
func (c *RedisCache) Get(ctx context.Context) (model.Payload, bool, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheMiss("redis")
		return model.Payload{}, false, nil
	}
	if err != nil {
		return model.Payload{}, false, fmt.Errorf("redis get: %w", err)
	}
	var p model.Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		metrics.RecordCacheMiss("redis")
		return model.Payload{}, false, fmt.Errorf("decode cached payload: %w", err)
	}
	metrics.RecordCacheHit("redis")
	return p, true, nil
}

// Set implements PayloadCache.
func (c *RedisCache) Set(ctx context.Context, p model.Payload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := c.client.Set(ctx, c.key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate implements PayloadCache.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
