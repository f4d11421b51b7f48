package cache

import (
	"context"
	"time"
)

// Cache is the port for the shared upstream-body cache.
// Values are opaque strings; callers own serialization.
type Cache interface {
	// Get returns the value and true when key is present and not expired.
	// A miss is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Put stores value under key, overwriting. A non-positive ttl keeps the
	// value until it is overwritten.
	Put(ctx context.Context, key string, value string, ttl time.Duration) error
}
