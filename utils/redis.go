package utils

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gather-app/gather-backend/config"
	"github.com/redis/go-redis/v9"
)

var (
	RedisClient *redis.Client
	Ctx         = context.Background()
)

// InitRedis connects the shared client. It leaves RedisClient nil when
// REDIS_ADDR is empty so callers can fall back to in-process behavior.
func InitRedis(cfg *config.Config) error {
	if cfg.RedisAddr == "" {
		log.Println("ℹ️ REDIS_ADDR not set, Redis features disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(Ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}

	RedisClient = client
	log.Printf("✅ Connected to Redis at %s", cfg.RedisAddr)
	return nil
}

// CloseRedis is called on shutdown.
func CloseRedis() {
	if RedisClient != nil {
		_ = RedisClient.Close()
	}
}
