// Package cache keeps the last raw payload for a freshness window.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/okian/cartola/internal/domain/model"
	"github.com/okian/cartola/pkg/metrics"
)

// DefaultTTL is the freshness window of a cached payload.
const DefaultTTL = 60 * time.Second

// PayloadCache stores the payload of the latest fetch cycle.
type PayloadCache interface {
	// Get returns the cached payload; ok is false when it is missing or stale.
	Get(ctx context.Context) (p model.Payload, ok bool, err error)
	// Set stores p for the freshness window.
	Set(ctx context.Context, p model.Payload) error
	// Invalidate drops the cached payload.
	Invalidate(ctx context.Context) error
}

// MemoryOption applies a configuration option to the MemoryCache.
type MemoryOption func(*MemoryCache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) {
		if now != nil {
			c.now = now
		}
	}
}

// MemoryCache is an in-process PayloadCache.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	payload model.Payload
	stored  time.Time
	valid   bool
	now     func() time.Time
}

// NewMemoryCache creates a cache with the given freshness window.
func NewMemoryCache(ttl time.Duration, opts ...MemoryOption) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &MemoryCache{ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get implements PayloadCache.
func (c *MemoryCache) Get(_ context.Context) (model.Payload, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.valid || c.now().Sub(c.stored) >= c.ttl {
		metrics.RecordCacheMiss("memory")
		return model.Payload{}, false, nil
	}
	metrics.RecordCacheHit("memory")
	return c.payload, true, nil
}

// Set implements PayloadCache.
func (c *MemoryCache) Set(_ context.Context, p model.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payload = p
	c.stored = c.now()
	c.valid = true
	return nil
}

// Invalidate implements PayloadCache.
func (c *MemoryCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payload = model.Payload{}
	c.valid = false
	return nil
}
