// Package redisclient provides the shared go-redis client used by the
// ephemeral OTP backend.
package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/verifykit/verifykit/config"
	"github.com/verifykit/verifykit/services/logging"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewClient(cfg *config.Config, logger *logging.Service) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	if opts.Password == "" && cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	if cfg.Redis.PoolSize > 0 {
		opts.PoolSize = cfg.Redis.PoolSize
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	if logger != nil {
		logger.Info("redis client configured",
			zap.String("addr", opts.Addr),
			zap.Int("db", opts.DB),
			zap.Int("pool_size", opts.PoolSize))
	}

	return client, nil
}

var Module = fx.Options(
	fx.Provide(NewClient),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, client *redis.Client, logger *logging.Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("failed to ping redis: %w", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if logger != nil {
				logger.Info("closing redis client")
			}
			return client.Close()
		},
	})
}
