package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrCacheDown = errors.New("cache unavailable")
)

type ClientConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// NewRedisClient builds the client shared by the cache, the login limiter,
// the session denylist and the job queue.
func NewRedisClient(config *ClientConfig) *redis.Client {
	if config == nil {
		config = DefaultClientConfig()
	}

	return redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})
}

// RedisCache stores JSON values under plain keys.
type RedisCache struct {
	client  *redis.Client
	timeout time.Duration
	metrics *CacheMetrics
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		timeout: 3 * time.Second,
		metrics: NewCacheMetrics(),
	}
}

func (r *RedisCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Set(ctx, key, data, expiration).Err(); err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("%w: set %s: %v", ErrCacheDown, key, err)
	}

	r.metrics.RecordSet()
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string, dest any) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.metrics.RecordMiss()
			return ErrCacheMiss
		}
		r.metrics.RecordError()
		return fmt.Errorf("%w: get %s: %v", ErrCacheDown, key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}

	r.metrics.RecordHit()
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("%w: delete: %v", ErrCacheDown, err)
	}

	r.metrics.RecordDelete()
	return nil
}

func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisCache) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Stats() map[string]any {
	m := r.metrics.GetStats()
	pool := r.client.PoolStats()

	return map[string]any{
		"hits":          m.Hits,
		"misses":        m.Misses,
		"errors":        m.Errors,
		"sets":          m.Sets,
		"deletes":       m.Deletes,
		"hit_rate":      r.metrics.HitRate(),
		"pool_hits":     pool.Hits,
		"pool_misses":   pool.Misses,
		"pool_timeouts": pool.Timeouts,
		"pool_total":    pool.TotalConns,
		"pool_idle":     pool.IdleConns,
		"pool_stale":    pool.StaleConns,
	}
}
