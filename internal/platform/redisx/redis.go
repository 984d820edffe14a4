package redisx

import (
	"context"
	"fmt"
	"time"

	"taskboard/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

// ConnectRedis sets RDB when addr is configured and reachable. An empty
// addr leaves RDB nil and disables Redis-backed features.
func ConnectRedis(ctx context.Context, addr, password string, db int) error {
	if addr == "" {
		logger.Info("REDIS_ADDR not set; token revocation and rate limiting disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("could not connect to Redis: %w", err)
	}
	RDB = client
	logger.Info("connected to Redis", "addr", addr)
	return nil
}

func CloseRedis() {
	if RDB != nil {
		RDB.Close()
		logger.Info("redis connection closed")
	}
}
