package bootstrap

import (
	"context"
	"log/slog"

	"handicraft-store/internal/infra/cache"
	"handicraft-store/internal/pkg/config"
	"handicraft-store/internal/usecase/queries"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var CacheModule = fx.Module("cache",
	fx.Provide(
		NewCartCache,
	),
)

// NewCartCache falls back to a no-op cache when REDIS_ADDR is empty.
func NewCartCache(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) queries.CartCache {
	if cfg.Redis.Addr == "" {
		logger.Info("cart cache disabled")
		return cache.NoopCartCache{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// An unreachable cache degrades reads but never blocks startup.
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("redis ping failed", "addr", cfg.Redis.Addr, "error", err.Error())
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return cache.NewRedisCartCache(client, cfg.Redis.CartTTL, cfg.Redis.CartTTLJitter)
}
