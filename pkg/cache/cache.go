// Package cache defines the advisory key-value cache consumed by the
// engine: the idempotency fast path and the balance read cache. Caches are
// never authoritative for a balance decision.
package cache

import (
	"context"
	"time"
)

// Cache is a TTL-backed string cache.
type Cache interface {
	// Get returns the cached value, or "" with found=false on a miss.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set stores a value with a TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes a single key.
	Delete(ctx context.Context, key string) error

	// DeletePattern removes every key matching a glob pattern, e.g.
	// "balance:tenant:*". Used for best-effort post-commit invalidation.
	DeletePattern(ctx context.Context, pattern string) error
}
