package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Defaults for the Redis client that holds rate-limit buckets. Bucket
// scripts are single round trips, so read and write budgets stay short and
// the limiter's own store timeout is the tighter bound.
const (
	defaultRedisDialTimeout  = 3 * time.Second
	defaultRedisIOTimeout    = 2 * time.Second
	defaultRedisPoolSize     = 20
	defaultRedisPoolWait     = 4 * time.Second
	defaultRedisIdleTime     = 5 * time.Minute
	defaultRedisConnLifetime = 30 * time.Minute
	defaultRedisPingTimeout  = 2 * time.Second
)

// RedisConfig describes the rate-limit store connection. Zero fields take
// the defaults above.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	DialTimeout time.Duration
	// IOTimeout applies to both reads and writes.
	IOTimeout time.Duration

	PoolSize        int
	MinIdleConns    int
	PoolWait        time.Duration
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	PingTimeout time.Duration
}

func orDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func (c RedisConfig) options() *redis.Options {
	pool := c.PoolSize
	if pool <= 0 {
		pool = defaultRedisPoolSize
	}
	io := orDuration(c.IOTimeout, defaultRedisIOTimeout)
	return &redis.Options{
		Addr:            c.Addr,
		Password:        c.Password,
		DB:              c.DB,
		DialTimeout:     orDuration(c.DialTimeout, defaultRedisDialTimeout),
		ReadTimeout:     io,
		WriteTimeout:    io,
		PoolSize:        pool,
		MinIdleConns:    max(c.MinIdleConns, 0),
		PoolTimeout:     orDuration(c.PoolWait, defaultRedisPoolWait),
		ConnMaxIdleTime: orDuration(c.ConnMaxIdleTime, defaultRedisIdleTime),
		ConnMaxLifetime: orDuration(c.ConnMaxLifetime, defaultRedisConnLifetime),
	}
}

// OpenRedis connects to the bucket store and fails unless it answers PING,
// so the API never starts with a limiter that would reject every request.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	rdb := redis.NewClient(cfg.options())
	if err := PingRedis(ctx, rdb, orDuration(cfg.PingTimeout, defaultRedisPingTimeout)); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// PingRedis backs the readiness check for the rate-limit store.
func PingRedis(ctx context.Context, rdb *redis.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("rate-limit store ping: %w", err)
	}
	return nil
}
