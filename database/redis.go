package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var Rdb *redis.Client

// ConnectRedis opens the shared client. An empty addr leaves Rdb nil and the
// caller falls back to in-process state.
func ConnectRedis(ctx context.Context, addr, password string, db int) error {
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	Rdb = client
	log.Info().Str("addr", addr).Msg("redis connection opened")
	return nil
}
