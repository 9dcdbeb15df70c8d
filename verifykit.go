package verifykit

import (
	"github.com/verifykit/verifykit/app"
	"github.com/verifykit/verifykit/config"
	"github.com/verifykit/verifykit/internal/options"
)

type App = app.App

func New(opts ...options.Option) (*App, error) {
	return app.New(opts...)
}

func WithConfig(cfg *config.Config) options.Option {
	return options.WithConfig(cfg)
}

func WithDatabase(models ...any) options.Option {
	return options.WithDatabase(models...)
}

func WithRedis() options.Option {
	return options.WithRedis()
}

func WithMail() options.Option {
	return options.WithMail()
}

func WithOTP() options.Option {
	return options.WithOTP()
}
