package app

import (
	"github.com/verifykit/verifykit/internal/options"
	"go.uber.org/fx"
)

// New assembles an App from functional options. It is the target of the
// root-level facade; direct builder use is equivalent.
func New(opts ...options.Option) (*App, error) {
	resolved := &options.Options{}
	for _, opt := range opts {
		opt(resolved)
	}

	builder := NewApp()

	if resolved.Config != nil {
		builder.WithConfig(resolved.Config)
	}
	if resolved.EnableDatabase {
		builder.WithDatabase(resolved.DatabaseModels...)
	}
	if resolved.EnableRedis {
		builder.WithRedis()
	}
	if resolved.EnableMail {
		builder.WithMail()
	}
	if resolved.EnableOTP {
		builder.WithOTP()
	}

	for _, extra := range resolved.ExtraFxOptions {
		if fxOpt, ok := extra.(fx.Option); ok {
			builder.WithFxOptions(fxOpt)
		}
	}

	return builder.Build()
}
