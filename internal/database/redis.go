package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"bridge-local-platform/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the Redis instance backing refresh-token
// revocation. Login and logout both hit it, so connectivity is verified up
// front rather than on the first auth request.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}
	log.Printf("Redis token store connected at %s, DB %d", cfg.Addr, cfg.DB)
	return rdb, nil
}
