package mail

import (
	"github.com/verifykit/verifykit/config"
	"github.com/verifykit/verifykit/services/logging"
	"go.uber.org/fx"
)

func ProvideMailService(cfg *config.Config, logger *logging.Service) (*Service, error) {
	return NewService(&cfg.Mail, cfg.App.Name, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideMailService),
)
