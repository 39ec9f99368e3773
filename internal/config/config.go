package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-core-fx/config"
)

type http struct {
	Address     string   `koanf:"address"`
	ProxyHeader string   `koanf:"proxy_header"`
	Proxies     []string `koanf:"proxies"`
}

type storageConfig struct {
	DataDir string `koanf:"data_dir"`
}

type githubConfig struct {
	// Token is optional; without it only public repositories are reachable.
	Token  string `koanf:"token"`
	APIURL string `koanf:"api_url"`
}

type giteaConfig struct {
	URL      string        `koanf:"url"`
	Token    string        `koanf:"token"`
	Username string        `koanf:"username"`
	Timeout  time.Duration `koanf:"timeout"`
}

type syncConfig struct {
	LocalPath       string        `koanf:"local_path"`
	Interval        time.Duration `koanf:"interval"`
	Timeout         time.Duration `koanf:"timeout"`
	RetryCount      int           `koanf:"retry_count"`
	ConcurrentTasks int           `koanf:"concurrent_tasks"`
}

type proxyConfig struct {
	Enabled  bool   `koanf:"enabled"`
	URL      string `koanf:"url"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

type Config struct {
	HTTP http `koanf:"http"`

	Storage storageConfig `koanf:"storage"`
	GitHub  githubConfig  `koanf:"github"`
	Gitea   giteaConfig   `koanf:"gitea"`
	Sync    syncConfig    `koanf:"sync"`
	Proxy   proxyConfig   `koanf:"proxy"`
}

func Default() Config {
	//nolint:exhaustruct,mnd //default values
	return Config{
		HTTP: http{
			Address:     "127.0.0.1:3000",
			ProxyHeader: "X-Forwarded-For",
			Proxies:     []string{},
		},

		Storage: storageConfig{
			DataDir: "./data",
		},

		GitHub: githubConfig{
			APIURL: "https://api.github.com",
		},

		Gitea: giteaConfig{
			Timeout: 30 * time.Second,
		},

		Sync: syncConfig{
			LocalPath:       "./data/repos",
			Interval:        time.Hour,
			Timeout:         30 * time.Minute,
			RetryCount:      3,
			ConcurrentTasks: 3,
		},
	}
}

func New() (Config, error) {
	cfg := Default()

	options := []config.Option{}
	if yamlPath := os.Getenv("CONFIG_PATH"); yamlPath != "" {
		options = append(options, config.WithLocalYAML(yamlPath))
	}

	if err := config.Load(&cfg, options...); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.Gitea.URL == "" {
		return fmt.Errorf("gitea.url is required")
	}
	if c.Gitea.Token == "" {
		return fmt.Errorf("gitea.token is required")
	}
	if c.Gitea.Username == "" {
		return fmt.Errorf("gitea.username is required")
	}
	if c.Sync.RetryCount < 1 {
		return fmt.Errorf("sync.retry_count must be positive")
	}
	if c.Sync.ConcurrentTasks < 1 {
		return fmt.Errorf("sync.concurrent_tasks must be positive")
	}

	return nil
}
