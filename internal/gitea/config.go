package gitea

import "time"

type Config struct {
	// BaseURL is the root of the Gitea deployment, e.g. https://git.example.com.
	BaseURL  string
	Token    string
	Username string

	// Timeout bounds every API request. Defaults to 30 seconds if zero.
	Timeout time.Duration

	// Proxy routes all client traffic through an HTTP proxy when enabled.
	Proxy ProxyConfig
}

type ProxyConfig struct {
	Enabled  bool
	URL      string
	Username string
	Password string
}
