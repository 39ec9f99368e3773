package scheduler

import (
	"context"

	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"scheduler",
		logger.WithNamedLogger("scheduler"),
		fx.Provide(New),
		fx.Invoke(func(lc fx.Lifecycle, scheduler *Scheduler) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					scheduler.Start()
					return nil
				},
				OnStop: func(context.Context) error {
					scheduler.Stop()
					return nil
				},
			})
		}),
	)
}
