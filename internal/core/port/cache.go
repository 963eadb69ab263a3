package port

import (
	"context"
	"time"
)

// CacheRepository is a best-effort byte cache. A miss returns found=false
// with a nil error.
type CacheRepository interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	// Incr adds delta to the counter at key, starting from zero, and returns
	// the new value. Counters never expire. Incr(ctx, key, 0) reads it.
	Incr(ctx context.Context, key string, delta int64) (int64, error)
}
