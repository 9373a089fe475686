package cache

import (
	"context"
	"time"
)

// Store is a key-value store with per-key expiry. The pipeline treats any
// backend error as a cache miss, so implementations should return errors
// rather than mask them.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
