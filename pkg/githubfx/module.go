package githubfx

import (
	"context"

	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"githubfx",
		logger.WithNamedLogger("githubfx"),
		fx.Provide(NewClient),
		fx.Invoke(func(lc fx.Lifecycle, logger *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					logger.Info("starting github module")
					return nil
				},
				OnStop: func(_ context.Context) error {
					logger.Info("stopping github module")
					return nil
				},
			})
		}),
	)
}
