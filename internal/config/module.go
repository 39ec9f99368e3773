package config

import (
	"github.com/DeanWanghewei/mirror-git/internal/gitea"
	"github.com/DeanWanghewei/mirror-git/internal/scheduler"
	"github.com/DeanWanghewei/mirror-git/internal/sync"
	"github.com/DeanWanghewei/mirror-git/internal/tasks"
	"github.com/DeanWanghewei/mirror-git/pkg/badgerfx"
	"github.com/DeanWanghewei/mirror-git/pkg/githubfx"
	"github.com/go-core-fx/fiberfx"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"config",
		fx.Provide(New),
		fx.Provide(func(cfg Config) fiberfx.Config {
			return fiberfx.Config{
				Address:     cfg.HTTP.Address,
				ProxyHeader: cfg.HTTP.ProxyHeader,
				Proxies:     cfg.HTTP.Proxies,
			}
		}),
		fx.Provide(func(cfg Config) badgerfx.Config {
			return badgerfx.Config{
				Dir: cfg.Storage.DataDir,
			}
		}),
		fx.Provide(func(cfg Config) githubfx.Config {
			return githubfx.Config{
				Token:   cfg.GitHub.Token,
				BaseURL: cfg.GitHub.APIURL,
				Proxy: githubfx.ProxyConfig{
					Enabled:  cfg.Proxy.Enabled,
					URL:      cfg.Proxy.URL,
					Username: cfg.Proxy.Username,
					Password: cfg.Proxy.Password,
				},
			}
		}),
		fx.Provide(func(cfg Config) gitea.Config {
			return gitea.Config{
				BaseURL:  cfg.Gitea.URL,
				Token:    cfg.Gitea.Token,
				Username: cfg.Gitea.Username,
				Timeout:  cfg.Gitea.Timeout,
				Proxy: gitea.ProxyConfig{
					Enabled:  cfg.Proxy.Enabled,
					URL:      cfg.Proxy.URL,
					Username: cfg.Proxy.Username,
					Password: cfg.Proxy.Password,
				},
			}
		}),
		fx.Provide(func(cfg Config) sync.Config {
			return sync.Config{
				LocalPath:   cfg.Sync.LocalPath,
				RetryCount:  cfg.Sync.RetryCount,
				PushTimeout: cfg.Sync.Timeout,
				Concurrency: cfg.Sync.ConcurrentTasks,
				Destination: sync.DestinationConfig{
					BaseURL:  cfg.Gitea.URL,
					Username: cfg.Gitea.Username,
					Token:    cfg.Gitea.Token,
				},
				Proxy: sync.ProxyConfig{
					Enabled:  cfg.Proxy.Enabled,
					URL:      cfg.Proxy.URL,
					Username: cfg.Proxy.Username,
					Password: cfg.Proxy.Password,
				},
			}
		}),
		fx.Provide(func(cfg Config) scheduler.Config {
			return scheduler.Config{
				Interval: cfg.Sync.Interval,
			}
		}),
		fx.Provide(func(cfg Config) tasks.Config {
			return tasks.Config{
				Workers: cfg.Sync.ConcurrentTasks,
			}
		}),
	)
}
