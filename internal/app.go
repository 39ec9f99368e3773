package internal

import (
	"context"

	"github.com/DeanWanghewei/mirror-git/internal/config"
	"github.com/DeanWanghewei/mirror-git/internal/gitea"
	"github.com/DeanWanghewei/mirror-git/internal/github"
	"github.com/DeanWanghewei/mirror-git/internal/history"
	"github.com/DeanWanghewei/mirror-git/internal/repos"
	"github.com/DeanWanghewei/mirror-git/internal/scheduler"
	"github.com/DeanWanghewei/mirror-git/internal/server"
	"github.com/DeanWanghewei/mirror-git/internal/sync"
	"github.com/DeanWanghewei/mirror-git/internal/tasks"
	"github.com/DeanWanghewei/mirror-git/pkg/badgerfx"
	"github.com/DeanWanghewei/mirror-git/pkg/githubfx"
	"github.com/capcom6/go-infra-fx/validator"
	"github.com/go-core-fx/fiberfx"
	"github.com/go-core-fx/healthfx"
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Run() {
	fx.New(
		// CORE MODULES
		logger.Module(),
		logger.WithFxDefaultLogger(),
		badgerfx.Module(),
		githubfx.Module(),
		healthfx.Module(),
		fiberfx.Module(),
		validator.Module,
		//
		// APP MODULES
		config.Module(),
		server.Module(),
		//
		// BUSINESS MODULES
		fx.Provide(func() healthfx.Version { return healthfx.Version{Version: "0.0.1", ReleaseID: 1} }),
		gitea.Module(),
		github.Module(),
		repos.Module(),
		history.Module(),
		sync.Module(),
		tasks.Module(),
		scheduler.Module(),
		//
		// LIFECYCLE MANAGEMENT
		fx.Invoke(func(lc fx.Lifecycle, logger *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					logger.Info("🚀 Mirror-Git application starting up")
					return nil
				},
				OnStop: func(_ context.Context) error {
					logger.Info("🛑 Mirror-Git application shutting down gracefully")
					return nil
				},
			})
		}),
	).Run()
}
