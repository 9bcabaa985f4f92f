package cache

import "context"

// Cache stores JSON-encoded values under string keys. Get returns
// ErrCacheMiss for absent keys.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
}
