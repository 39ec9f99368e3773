package gitea

import (
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"gitea",
		logger.WithNamedLogger("gitea"),
		fx.Provide(NewClient),
	)
}
