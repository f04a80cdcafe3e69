package cache

import (
	"context"
	"time"
)

// Store represents the shared key-value store interface used across the
// application. Route cache entries, invalidation markers, verification codes,
// reset tokens and revocation records all live behind this interface,
// distinguished only by key prefix.
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// IncrementWithTTL atomically increments a counter, setting the TTL when
	// the counter is created. Verification attempt counting relies on this
	// being a single store-side operation rather than read-modify-write.
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	// DeletePattern removes every key matching a glob-style pattern and
	// returns the number of keys removed.
	DeletePattern(ctx context.Context, pattern string) (int64, error)
}
