package database

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/ejehcaleb2/ease-home-find/internal/config"
)

// NewRedisClient creates a Redis client for the rate limiter and verifies
// connectivity.
func NewRedisClient(cfg config.RedisConfig) (redis.UniversalClient, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis configuration error: addr must be provided")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Addr},
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis (addr: %s): %w", cfg.Addr, err)
	}

	return client, nil
}
