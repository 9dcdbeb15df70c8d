package options

import (
	"github.com/verifykit/verifykit/config"
)

type Options struct {
	Config         *config.Config
	EnableDatabase bool
	DatabaseModels []any
	EnableRedis    bool
	EnableMail     bool
	EnableOTP      bool
	ExtraFxOptions []any
}

type Option func(*Options)

func WithConfig(cfg *config.Config) Option {
	return func(opts *Options) {
		opts.Config = cfg
	}
}

func WithDatabase(models ...any) Option {
	return func(opts *Options) {
		opts.EnableDatabase = true
		opts.DatabaseModels = models
	}
}

func WithRedis() Option {
	return func(opts *Options) {
		opts.EnableRedis = true
	}
}

func WithMail() Option {
	return func(opts *Options) {
		opts.EnableMail = true
	}
}

func WithOTP() Option {
	return func(opts *Options) {
		opts.EnableOTP = true
	}
}

func WithFxOptions(fxOpts ...any) Option {
	return func(opts *Options) {
		opts.ExtraFxOptions = append(opts.ExtraFxOptions, fxOpts...)
	}
}
