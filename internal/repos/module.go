package repos

import (
	"github.com/DeanWanghewei/mirror-git/internal/gitea"
	"github.com/DeanWanghewei/mirror-git/internal/history"
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"repos",
		logger.WithNamedLogger("repos"),
		fx.Provide(NewRepository, fx.Private),
		fx.Provide(func(client *gitea.Client) DestinationRemover { return client }, fx.Private),
		fx.Provide(func(svc *history.Service) HistoryRemover { return svc }, fx.Private),
		fx.Provide(NewService),
	)
}
