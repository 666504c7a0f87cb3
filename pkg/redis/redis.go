package redis

import (
	"context"

	"github.com/ganhesocial/ganhesocial/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// New returns a redis client, or nil when no address is configured.
// Consumers treat a nil client as "mirror disabled" and stay on the
// database-authoritative path.
func New(cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Info("redis not configured, leaderboard mirror disabled")
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}

func registerHooks(lc fx.Lifecycle, client *redis.Client) {
	if client == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = ctx
			return client.Close()
		},
	})
}

var Module = fx.Module("redis",
	fx.Provide(New),
	fx.Invoke(registerHooks),
)
