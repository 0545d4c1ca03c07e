package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/localink/localink/config"
	"github.com/localink/localink/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client   *redis.Client
	toursTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, toursTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
			DialTimeout:  5 * time.Second,
		}),
		toursTTL,
	)
}

func NewRedisCacheWithClient(client *redis.Client, toursTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, toursTTL: toursTTL}
}

// Client exposes the connection so the rate limiter can share it.
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetTours returns the cached public listing, or nil on a miss.
func (c *RedisCache) GetTours(ctx context.Context) ([]domain.Tour, error) {
	data, err := c.client.Get(ctx, toursKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var tours []domain.Tour
	if err := json.Unmarshal(data, &tours); err != nil {
		return nil, fmt.Errorf("decode cached tours: %w", err)
	}
	return tours, nil
}

func (c *RedisCache) SetTours(ctx context.Context, tours []domain.Tour) error {
	payload, err := json.Marshal(tours)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, toursKey(), payload, c.toursTTL).Err()
}

func (c *RedisCache) InvalidateTours(ctx context.Context) error {
	return c.client.Del(ctx, toursKey()).Err()
}

func toursKey() string {
	return "cache:tours"
}
