package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/girishiitm/synergysphere/pkg/logger"
)

// Client is the never-raise adapter the rest of the application talks to.
// Structured values are serialized to JSON; every operation degrades to a
// failure/empty indicator when the backing store is absent or unreachable, so
// the system stays fully functional (cache simply always-misses) without it.
type Client struct {
	store Store
}

// NewClient wraps a Store. A nil store yields a permanently disabled client,
// which is the explicit "caching off" sentinel state.
func NewClient(store Store) *Client {
	return &Client{store: store}
}

// Disabled returns a client with no backing store.
func Disabled() *Client {
	return &Client{}
}

// Enabled reports whether a backing store is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.store != nil
}

// SetJSON serializes value to JSON and stores it. Returns false on any failure.
func (c *Client) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if !c.Enabled() {
		return false
	}

	payload, err := json.Marshal(value)
	if err != nil {
		logger.WithModule("cache").Error("marshal", zap.String("key", key), zap.Error(err))
		return false
	}

	if err := c.store.Set(ctx, key, payload, ttl); err != nil {
		logger.WithModule("cache").Warn("set failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// GetJSON fetches and deserializes a stored value into dest.
// Returns false when the key is absent or the backend is unavailable.
func (c *Client) GetJSON(ctx context.Context, key string, dest any) bool {
	if !c.Enabled() {
		return false
	}

	payload, found, err := c.store.Get(ctx, key)
	if err != nil {
		logger.WithModule("cache").Warn("get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !found {
		return false
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		logger.WithModule("cache").Error("unmarshal", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// GetString returns the raw stored string, or the default when absent.
func (c *Client) GetString(ctx context.Context, key, fallback string) string {
	if !c.Enabled() {
		return fallback
	}

	payload, found, err := c.store.Get(ctx, key)
	if err != nil || !found {
		return fallback
	}
	return string(payload)
}

// SetString stores a raw string value.
func (c *Client) SetString(ctx context.Context, key, value string, ttl time.Duration) bool {
	if !c.Enabled() {
		return false
	}
	if err := c.store.Set(ctx, key, []byte(value), ttl); err != nil {
		logger.WithModule("cache").Warn("set failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Delete removes keys. Returns false on backend failure.
func (c *Client) Delete(ctx context.Context, keys ...string) bool {
	if !c.Enabled() || len(keys) == 0 {
		return false
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		logger.WithModule("cache").Warn("delete failed", zap.Error(err))
		return false
	}
	return true
}

// Exists reports key presence, defaulting to false on failure.
func (c *Client) Exists(ctx context.Context, key string) bool {
	if !c.Enabled() {
		return false
	}
	found, err := c.store.Exists(ctx, key)
	if err != nil {
		return false
	}
	return found
}

// Expire refreshes a key's time-to-live.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) bool {
	if !c.Enabled() {
		return false
	}
	return c.store.Expire(ctx, key, ttl) == nil
}

// Increment atomically bumps a counter, creating it with the supplied window.
// Returns 0 when the backend is unavailable.
func (c *Client) Increment(ctx context.Context, key string, window time.Duration) int64 {
	if !c.Enabled() {
		return 0
	}
	count, _, err := c.store.IncrementWithTTL(ctx, key, window)
	if err != nil {
		logger.WithModule("cache").Warn("increment failed", zap.String("key", key), zap.Error(err))
		return 0
	}
	return count
}

// DeletePattern removes all keys matching a glob pattern, returning the count.
func (c *Client) DeletePattern(ctx context.Context, pattern string) int64 {
	if !c.Enabled() {
		return 0
	}
	deleted, err := c.store.DeletePattern(ctx, pattern)
	if err != nil {
		logger.WithModule("cache").Warn("delete pattern failed", zap.String("pattern", pattern), zap.Error(err))
		return 0
	}
	return deleted
}
