package otp

import (
	"github.com/redis/go-redis/v9"
	"github.com/verifykit/verifykit/clock"
	"github.com/verifykit/verifykit/config"
	"github.com/verifykit/verifykit/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func NewProvider(cfg *config.Config, store Store, logger *logging.Service) *Service {
	return NewService(cfg, store, clock.New(), logger)
}

var Module = fx.Options(
	fx.Provide(NewProvider),
)

// One of the store modules must accompany Module; the app builder selects
// it from config.

var GormStoreModule = fx.Options(
	fx.Provide(func(db *gorm.DB) Store {
		return NewGormStore(db)
	}),
)

var RedisStoreModule = fx.Options(
	fx.Provide(func(client *redis.Client) Store {
		return NewRedisStore(client, nil)
	}),
)

var MemoryStoreModule = fx.Options(
	fx.Provide(func() Store {
		return NewMemoryStore()
	}),
)
