// Package cache provides the byte cache behind the HTTP response cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"panel-backend/config"
)

// Supported drivers.
const (
	DriverMemory    = "memory"
	DriverRedis     = "redis"
	DriverMemcached = "memcached"
)

// Cache stores opaque values with a time to live.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
}

// New builds the cache selected by cfg.Driver.
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverRedis:
		return NewRedis(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})), nil
	case DriverMemcached:
		if cfg.MemcachedAddr == "" {
			return nil, errors.New("cache.memcached_addr is required for the memcached driver")
		}
		return NewMemcached(memcache.New(cfg.MemcachedAddr)), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Driver)
	}
}

// Memory is an in-process cache.
type Memory struct {
	c *gocache.Cache
}

// NewMemory creates an in-process cache that sweeps expired entries every
// ten minutes.
func NewMemory() *Memory {
	return &Memory{c: gocache.New(5*time.Minute, 10*time.Minute)}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, found := m.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return v.([]byte), true, nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.c.Set(key, value, ttl)
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

// Redis stores entries in a redis server.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps a redis client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %q: %w", key, err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Memcached stores entries in a memcached server.
type Memcached struct {
	client *memcache.Client
}

// NewMemcached wraps a memcache client.
func NewMemcached(client *memcache.Client) *Memcached {
	return &Memcached{client: client}
}

func (m *Memcached) Get(ctx context.Context, key string) ([]byte, bool, error) {
	item, err := m.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("memcached get %q: %w", key, err)
	}
	return item.Value, true, nil
}

func (m *Memcached) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	item := &memcache.Item{Key: key, Value: value, Expiration: int32(ttl / time.Second)}
	if err := m.client.Set(item); err != nil {
		return fmt.Errorf("memcached set %q: %w", key, err)
	}
	return nil
}

func (m *Memcached) Ping(ctx context.Context) error {
	return m.client.Ping()
}
