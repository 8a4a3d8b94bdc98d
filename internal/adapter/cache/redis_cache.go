package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/papertrade/sandbox-engine/internal/domain"
	"github.com/papertrade/sandbox-engine/internal/port"
)

// RedisCache publishes book snapshots to redis, letting a separate UI host
// poll them without hitting the engine process.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ port.Cache = (*RedisCache)(nil)

func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: rdb, ttl: ttl}
}

func key(symbol string) string { return "book:" + symbol }

func (c *RedisCache) SetBook(ctx context.Context, symbol string, snap *domain.BookSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(symbol), b, c.ttl).Err()
}

func (c *RedisCache) GetBook(ctx context.Context, symbol string) (*domain.BookSnapshot, error) {
	b, err := c.client.Get(ctx, key(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap domain.BookSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
