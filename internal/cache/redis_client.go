package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Cache = (*RedisClient)(nil)

// RedisClient caches record headers in Redis as JSON. Every entry gets the
// same TTL.
type RedisClient struct {
	rdb  *redis.Client
	ttl  time.Duration
	keys *KeyBuilder
}

type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	CacheTTL     int // seconds
	Namespace    string
}

func (c RedisConfig) addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func (c RedisConfig) options() *redis.Options {
	return &redis.Options{
		Addr:         c.addr(),
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		MaxRetries:   c.MaxRetries,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// NewRedisClient connects and pings the server before returning.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(cfg.options())

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, NewCacheError("connect", "", fmt.Errorf("redis at %s: %w", cfg.addr(), err))
	}

	return &RedisClient{
		rdb:  rdb,
		ttl:  time.Duration(cfg.CacheTTL) * time.Second,
		keys: NewKeyBuilder(cfg.Namespace),
	}, nil
}

func (r *RedisClient) Set(ctx context.Context, key string, value interface{}) error {
	if key == "" {
		return NewCacheError("set", key, ErrInvalidCacheKey)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return NewCacheError("set", key, fmt.Errorf("encode: %w", err))
	}

	if err := r.rdb.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return NewCacheError("set", key, err)
	}
	return nil
}

func (r *RedisClient) Get(ctx context.Context, key string, dest interface{}) error {
	if key == "" {
		return NewCacheError("get", key, ErrInvalidCacheKey)
	}

	data, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return ErrCacheMiss
	case err != nil:
		return NewCacheError("get", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return NewCacheError("get", key, fmt.Errorf("decode: %w", err))
	}
	return nil
}

// HealthCheck pings Redis. It satisfies handler.HealthChecker.
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return NewCacheError("ping", "", err)
	}
	return nil
}

func (r *RedisClient) Close() error {
	if err := r.rdb.Close(); err != nil {
		return NewCacheError("close", "", err)
	}
	return nil
}

// KeyBuilder returns the builder scoped to the configured namespace.
func (r *RedisClient) KeyBuilder() *KeyBuilder {
	return r.keys
}
