package exposure

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"rateview/domain"
	"rateview/pkg/logger"
)

// ExternalCache is the optional shared cache tier (Redis in production).
// A miss is (nil, false, nil); errors are tier failures the caller falls
// back from.
type ExternalCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Flush(ctx context.Context) error
}

type localEntry struct {
	storedAt time.Time
	payload  domain.ExposureResponse
}

// PayloadCache is the two-tier exposure cache: a fast in-process TTL map plus
// an optional external tier shared across instances. Reads prefer the
// external tier; writes go to both. External-tier failures are logged and
// absorbed, never surfaced.
type PayloadCache struct {
	ttl      time.Duration
	mu       sync.RWMutex
	local    map[string]localEntry
	external ExternalCache

	now func() time.Time
}

// NewPayloadCache builds a cache; external may be nil to run single-tier.
func NewPayloadCache(ttl time.Duration, external ExternalCache) *PayloadCache {
	return &PayloadCache{
		ttl:      ttl,
		local:    make(map[string]localEntry),
		external: external,
		now:      time.Now,
	}
}

// Get returns the cached payload for key, if any tier holds a fresh copy.
// Stale local entries are evicted on read.
func (c *PayloadCache) Get(ctx context.Context, key string) (*domain.ExposureResponse, bool) {
	if c.external != nil {
		raw, found, err := c.external.Get(ctx, key)
		if err != nil {
			logger.Warn("external cache read failed, falling back to local tier", "key", key, "error", err)
		} else if found {
			var payload domain.ExposureResponse
			if err := json.Unmarshal(raw, &payload); err == nil {
				ExposureCacheHitsTotal.WithLabelValues("redis").Inc()
				return &payload, true
			}
			logger.Warn("external cache held malformed payload", "key", key)
		}
	}

	c.mu.RLock()
	entry, ok := c.local[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.now().Sub(entry.storedAt) > c.ttl {
		c.mu.Lock()
		// re-check under the write lock; a concurrent Set may have refreshed it
		if current, ok := c.local[key]; ok && c.now().Sub(current.storedAt) > c.ttl {
			delete(c.local, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	ExposureCacheHitsTotal.WithLabelValues("local").Inc()
	payload := entry.payload
	return &payload, true
}

// Set stores the payload in both tiers.
func (c *PayloadCache) Set(ctx context.Context, key string, payload *domain.ExposureResponse) {
	c.mu.Lock()
	c.local[key] = localEntry{storedAt: c.now(), payload: *payload}
	c.mu.Unlock()

	if c.external == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal exposure payload for cache", "key", key, "error", err)
		return
	}
	if err := c.external.Set(ctx, key, raw, c.ttl); err != nil {
		logger.Warn("external cache write failed", "key", key, "error", err)
	}
}

// Clear removes one key from both tiers.
func (c *PayloadCache) Clear(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.local, key)
	c.mu.Unlock()

	if c.external != nil {
		if err := c.external.Delete(ctx, key); err != nil {
			logger.Warn("external cache delete failed", "key", key, "error", err)
		}
	}
}

// ClearAll flushes both tiers.
func (c *PayloadCache) ClearAll(ctx context.Context) {
	c.mu.Lock()
	c.local = make(map[string]localEntry)
	c.mu.Unlock()

	if c.external != nil {
		if err := c.external.Flush(ctx); err != nil {
			logger.Warn("external cache flush failed", "error", err)
		}
	}
}
