package sync

import (
	"github.com/DeanWanghewei/mirror-git/internal/gitea"
	"github.com/DeanWanghewei/mirror-git/internal/history"
	"github.com/DeanWanghewei/mirror-git/internal/repos"
	"github.com/go-core-fx/logger"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"sync",
		logger.WithNamedLogger("sync"),
		fx.Provide(func(client *gitea.Client) Destination { return client }, fx.Private),
		fx.Provide(func(svc *repos.Service) RecordStore { return svc }, fx.Private),
		fx.Provide(func(svc *history.Service) HistoryStore { return svc }, fx.Private),
		fx.Provide(NewTransport, fx.Private),
		fx.Provide(func() prometheus.Registerer { return prometheus.DefaultRegisterer }, fx.Private),
		fx.Provide(NewEngine),
	)
}
