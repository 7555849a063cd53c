package cache

import (
	"context"
	"time"
)

// Cache is the small key/value surface the admin gate and the delete
// confirmation flow need. Every key expires.
type Cache interface {
	// Incr adds one to key and starts the ttl when the key is new.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Count(ctx context.Context, key string) (int64, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}
