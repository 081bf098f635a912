package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"atsscore/internal/config"
	"atsscore/internal/errors"
	"atsscore/internal/types"

	"github.com/redis/go-redis/v9"
)

// Redis stores reports as JSON strings with a TTL.
type Redis struct {
	client  *redis.Client
	ttl     time.Duration
	timeout time.Duration
}

// NewRedis connects to the server in cfg and pings it once.
func NewRedis(ctx context.Context, cfg config.CacheConfig) (*Redis, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	c := &Redis{client: client, ttl: cfg.TTL, timeout: timeout}
	if err := c.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return c, nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, timeout: 500 * time.Millisecond}
}

// Ping tests the Redis connection
func (c *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.client.Ping(ctx).Err(); err != nil {
		return errors.NewNetworkError(errors.ErrCodeCacheUnavailable, "redis ping failed", err)
	}
	return nil
}

func (c *Redis) Get(ctx context.Context, key string) (*types.ATSReport, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	val, err := c.client.Get(ctx, key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewNetworkError(errors.ErrCodeCacheUnavailable, "redis get failed", err).
			WithContext("key", key)
	}

	var report types.ATSReport
	if err := json.Unmarshal(val, &report); err != nil {
		// a corrupt entry is treated as a miss and overwritten on the next Set
		return nil, false, nil
	}
	return &report, true, nil
}

func (c *Redis) Set(ctx context.Context, key string, report *types.ATSReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeCacheUnavailable, "failed to encode report", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return errors.NewNetworkError(errors.ErrCodeCacheUnavailable, "redis set failed", err).
			WithContext("key", key)
	}
	return nil
}

// Close closes the Redis connection
func (c *Redis) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
