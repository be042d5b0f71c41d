package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Store is the key-value backing for the fingerprint cache. Implementations
// must tolerate concurrent duplicate writers (last writer wins).
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, val []byte) error
}

// entry is the on-disk envelope. The fingerprint of the original request is
// stored next to the payload so a reused or colliding key is detected as
// stale and recomputed.
type entry struct {
	SourceKey string          `json:"query"`
	Payload   json.RawMessage `json:"bindings"`
}

// Metrics receives hit and miss counts per provider. Satisfied by
// *tracker.Tracker.
type Metrics interface {
	TrackCacheHit(provider string)
	TrackCacheMiss(provider string)
}

// Cache wraps a Store with the get-or-compute contract.
type Cache struct {
	store    Store
	logger   *slog.Logger
	metrics  Metrics
	provider string
}

// New creates a Cache on top of the given store.
func New(store Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, logger: logger}
}

// WithMetrics returns a copy of the cache that reports hits and misses under
// the given provider name. The backing store is shared, so each client can
// hold its own instrumented view of one cache directory.
func (c *Cache) WithMetrics(m Metrics, provider string) *Cache {
	clone := *c
	clone.metrics = m
	clone.provider = provider
	return &clone
}

// MD5Key returns the hex md5 digest of s, used as a content-addressed cache
// key for query text and id batches.
func MD5Key(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// GetOrCompute returns the cached payload for key, or invokes produce and
// stores the result. sourceKey is the canonical form of the request inputs;
// a cached entry whose stored fingerprint differs from sourceKey is treated
// as a miss and overwritten. If sourceKey is empty, key itself is used.
//
// If produce fails, nothing is written and the error propagates unmodified.
func (c *Cache) GetOrCompute(key, sourceKey string, produce func() (json.RawMessage, error)) (json.RawMessage, error) {
	if sourceKey == "" {
		sourceKey = key
	}

	if data, ok := c.store.Get(key); ok {
		var e entry
		if err := json.Unmarshal(data, &e); err == nil && e.SourceKey == sourceKey {
			c.trackHit()
			return e.Payload, nil
		}
		c.logger.Debug("stale cache entry, recomputing", "key", key)
	}
	c.trackMiss()

	payload, err := produce()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(entry{SourceKey: sourceKey, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.store.Set(key, data); err != nil {
		// A failed write is not fatal, the computed value is still good.
		c.logger.Error("failed to write cache entry", "key", key, "error", err)
	}

	return payload, nil
}

func (c *Cache) trackHit() {
	if c.metrics != nil {
		c.metrics.TrackCacheHit(c.provider)
	}
}

func (c *Cache) trackMiss() {
	if c.metrics != nil {
		c.metrics.TrackCacheMiss(c.provider)
	}
}
