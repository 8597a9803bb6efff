package counter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisCounter keeps daily counters in redis so every API replica shares them.
type RedisCounter struct {
	client *redis.Client
	prefix string
}

func NewRedisCounter(cfg RedisConfig) (*RedisCounter, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	return &RedisCounter{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix: cfg.KeyPrefix,
	}, nil
}

func (c *RedisCounter) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Increment bumps key and pins its expiry in one MULTI/EXEC.
func (c *RedisCounter) Increment(ctx context.Context, key string, expireAt time.Time) (int64, error) {
	fullKey := c.prefix + key

	var incr *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, fullKey)
		pipe.ExpireAt(ctx, fullKey, expireAt)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("increment counter key=%s: %w", fullKey, err)
	}
	return incr.Val(), nil
}

func (c *RedisCounter) Close() error {
	return c.client.Close()
}
