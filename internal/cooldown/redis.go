package cooldown

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "arcade:cooldown:"

// Redis shares cooldowns across processes with SET NX PX.
type Redis struct {
	rdb *redis.Client
}

// NewRedis connects to redisURL and verifies the connection.
func NewRedis(ctx context.Context, redisURL string) (*Redis, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{rdb: rdb}, nil
}

func (r *Redis) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}

func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, time.Duration, error) {
	if ttl <= 0 {
		return true, 0, nil
	}
	k := keyPrefix + key
	ok, err := r.rdb.SetNX(ctx, k, "1", ttl).Result()
	if err != nil {
		return false, 0, err
	}
	if ok {
		return true, 0, nil
	}
	left, err := r.rdb.PTTL(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}
	// -2: expired between the calls; -1: no TTL, which this package never writes.
	if left < 0 {
		left = 0
	}
	return false, left, nil
}
