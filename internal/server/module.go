package server

import (
	"github.com/DeanWanghewei/mirror-git/internal/server/handlers/monitor"
	"github.com/DeanWanghewei/mirror-git/internal/server/handlers/repositories"
	"github.com/DeanWanghewei/mirror-git/internal/server/handlers/source"
	syncapi "github.com/DeanWanghewei/mirror-git/internal/server/handlers/sync"
	"github.com/DeanWanghewei/mirror-git/internal/server/handlers/tasks"
	"github.com/go-core-fx/fiberfx"
	"github.com/go-core-fx/fiberfx/handler"
	"github.com/go-core-fx/fiberfx/health"
	"github.com/go-core-fx/fiberfx/validation"
	"github.com/go-core-fx/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"server",
		logger.WithNamedLogger("server"),

		fx.Provide(func(log *zap.Logger) fiberfx.Options {
			opts := fiberfx.Options{}
			opts.WithErrorHandler(fiberfx.NewJSONErrorHandler(log))
			opts.WithMetrics()
			return opts
		}),

		fx.Provide(
			fx.Annotate(health.NewHandler, fx.ResultTags(`name:"health-handler"`)), fx.Private,
			fx.Annotate(repositories.NewHandler, fx.ResultTags(`group:"handlers"`)), fx.Private,
			fx.Annotate(source.NewHandler, fx.ResultTags(`group:"handlers"`)), fx.Private,
			fx.Annotate(syncapi.NewHandler, fx.ResultTags(`group:"handlers"`)), fx.Private,
			fx.Annotate(tasks.NewHandler, fx.ResultTags(`group:"handlers"`)), fx.Private,
			fx.Annotate(monitor.NewHandler, fx.ResultTags(`group:"handlers"`)), fx.Private,
		),

		fx.Invoke(
			fx.Annotate(
				func(handlers []handler.Handler, healthHandler handler.Handler, app *fiber.App) {
					// Health endpoint
					healthHandler.Register(app)

					// Version 1 API group
					v1 := app.Group("/api/v1")

					v1.Use(validation.Middleware)

					for _, h := range handlers {
						h.Register(v1)
					}
				},
				fx.ParamTags(`group:"handlers"`, `name:"health-handler"`),
			),
		),
	)
}
