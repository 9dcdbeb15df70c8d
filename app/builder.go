package app

import (
	"fmt"

	"github.com/verifykit/verifykit/config"
	"github.com/verifykit/verifykit/database"
	"github.com/verifykit/verifykit/redisclient"
	"github.com/verifykit/verifykit/services/logging"
	"github.com/verifykit/verifykit/services/mail"
	"github.com/verifykit/verifykit/services/otp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type AppBuilder struct {
	config    *config.Config
	services  map[string]bool
	models    []any
	fxOptions []fx.Option
	errors    []error
}

func NewApp() *AppBuilder {
	return &AppBuilder{
		services:  make(map[string]bool),
		models:    make([]any, 0),
		fxOptions: make([]fx.Option, 0),
		errors:    make([]error, 0),
	}
}

func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	if cfg == nil {
		b.addError("config cannot be nil")
		return b
	}
	b.config = cfg
	return b
}

func (b *AppBuilder) WithAutoConfig() *AppBuilder {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		b.addError(fmt.Sprintf("failed to load config: %v", err))
		return b
	}
	b.config = cfg
	return b
}

func (b *AppBuilder) WithDatabase(models ...any) *AppBuilder {
	b.services["database"] = true
	b.models = append(b.models, models...)
	return b
}

func (b *AppBuilder) WithRedis() *AppBuilder {
	b.services["redis"] = true
	return b
}

func (b *AppBuilder) WithMail() *AppBuilder {
	b.services["mail"] = true
	return b
}

// WithOTP enables the verification engine. The storage backend comes from
// config (OTP.Store): "gorm" implies WithDatabase, "redis" implies
// WithRedis, "memory" needs neither.
func (b *AppBuilder) WithOTP() *AppBuilder {
	b.services["otp"] = true
	return b
}

func (b *AppBuilder) WithFxOptions(opts ...fx.Option) *AppBuilder {
	b.fxOptions = append(b.fxOptions, opts...)
	return b
}

func (b *AppBuilder) Build() (*App, error) {
	if b.config == nil {
		b.WithAutoConfig()
	}

	if err := b.validate(); err != nil {
		return nil, err
	}

	logger, err := b.createLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	var db *gorm.DB
	if b.services["database"] {
		modelsOpt := database.WithModels(b.models...)
		db, err = database.ProvideDatabase(*b.config, modelsOpt)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	fxOptions := b.buildFxOptions(logger, db)

	app := &App{
		config: b.config,
		logger: logger,
		db:     db,
	}

	if b.services["otp"] {
		fxOptions = append(fxOptions, fx.Invoke(func(svc *otp.Service) {
			app.otpSvc = svc
		}))
	}

	app.fx = fx.New(fxOptions...)

	return app, nil
}

func (b *AppBuilder) addError(msg string) {
	b.errors = append(b.errors, fmt.Errorf("%s", msg))
}

func (b *AppBuilder) validate() error {
	if len(b.errors) > 0 {
		return fmt.Errorf("configuration errors: %v", b.errors)
	}

	if b.services["otp"] {
		switch b.config.OTP.Store {
		case "gorm":
			// The record model must be migrated even when the caller already
			// enabled the database with its own models.
			b.services["database"] = true
			hasRecordModel := false
			for _, model := range b.models {
				if _, ok := model.(*otp.Record); ok {
					hasRecordModel = true
					break
				}
			}
			if !hasRecordModel {
				b.models = append(b.models, &otp.Record{})
			}
		case "redis":
			b.services["redis"] = true
		case "memory":
		default:
			return fmt.Errorf("unsupported OTP store: %s (supported: gorm, redis, memory)", b.config.OTP.Store)
		}
	}

	return nil
}

func (b *AppBuilder) createLogger() (*logging.Service, error) {
	if b.config == nil {
		return nil, fmt.Errorf("config required for logger creation")
	}

	return logging.NewService(logging.Config{
		Level:      logging.LogLevel(b.config.Log.Level),
		Format:     b.config.Log.Format,
		OutputPath: b.config.Log.Output,
	})
}

func (b *AppBuilder) buildFxOptions(logger *logging.Service, db *gorm.DB) []fx.Option {
	var options []fx.Option

	options = append(options,
		fx.Supply(b.config),
		fx.Supply(logger),
		fx.NopLogger,
	)

	if db != nil {
		options = append(options, fx.Supply(db))
	}

	if b.services["redis"] {
		options = append(options, redisclient.Module)
	}
	if b.services["mail"] {
		options = append(options, mail.Module)
	}

	if b.services["otp"] {
		switch b.config.OTP.Store {
		case "gorm":
			options = append(options, otp.GormStoreModule)
		case "redis":
			options = append(options, otp.RedisStoreModule)
		case "memory":
			options = append(options, otp.MemoryStoreModule)
		}
		options = append(options, otp.Module)

		if b.services["mail"] {
			options = append(options, fx.Invoke(func(svc *otp.Service, mailSvc *mail.Service) {
				svc.SetSender(mailSvc)
			}))
		}
	}

	options = append(options, b.fxOptions...)

	return options
}
