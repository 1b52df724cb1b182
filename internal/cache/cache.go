// internal/cache/cache.go
package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// Cache is a best-effort read-through cache over memcached. Without an
// endpoint it degrades to always-miss; no operation ever returns an
// error to the caller.
type Cache struct {
	mc     *memcache.Client
	logger *slog.Logger
}

func New(endpoint string, logger *slog.Logger) *Cache {
	if endpoint == "" {
		logger.Warn("memcached endpoint not set; cache disabled")
		return &Cache{logger: logger}
	}
	logger.Info("memcached client created", "endpoint", endpoint)
	return &Cache{mc: memcache.New(endpoint), logger: logger}
}

// Get unmarshals the cached value into v and reports whether it was a hit.
func (c *Cache) Get(key string, v any) bool {
	if c.mc == nil {
		return false
	}
	item, err := c.mc.Get(key)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(item.Value, v); err != nil {
		return false
	}
	return true
}

func (c *Cache) Set(key string, v any, ttl time.Duration) {
	if c.mc == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.mc.Set(&memcache.Item{Key: key, Value: data, Expiration: int32(ttl.Seconds())}); err != nil {
		c.logger.Debug("cache set failed", "key", key, "err", err)
	}
}

func (c *Cache) Delete(key string) {
	if c.mc == nil {
		return
	}
	if err := c.mc.Delete(key); err != nil && err != memcache.ErrCacheMiss {
		c.logger.Debug("cache delete failed", "key", key, "err", err)
	}
}

// ListKey is the cache key for an owner's job listing at a given limit.
func ListKey(ownerID string, limit int) string {
	return fmt.Sprintf("jobs:%s:limit=%d", ownerID, limit)
}

// DetailKey is the cache key for a single job view.
func DetailKey(ownerID, jobID string) string {
	return fmt.Sprintf("jobs:%s:%s", ownerID, jobID)
}
