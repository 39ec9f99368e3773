package tasks

import (
	"context"

	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"tasks",
		logger.WithNamedLogger("tasks"),
		fx.Provide(NewService),
		fx.Invoke(func(lc fx.Lifecycle, svc *Service) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					svc.Start()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return svc.Stop(ctx)
				},
			})
		}),
	)
}
