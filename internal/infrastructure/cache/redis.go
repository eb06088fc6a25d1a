package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// OpenRedis connects and pings; the client is closed again when the ping
// fails.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  pingTimeout,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	slog.Info("redis connected", "addr", cfg.Addr, "db", cfg.DB)
	return r, nil
}
