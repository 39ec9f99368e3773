package githubfx

import (
	"time"
)

// DefaultBaseURL is the public GitHub API endpoint.
const DefaultBaseURL = "https://api.github.com"

// Config holds the configuration for the GitHub API client.
type Config struct {
	// Token is a personal access token. Optional; unauthenticated clients
	// can only reach public repositories.
	Token string

	// BaseURL overrides the API endpoint for GitHub Enterprise deployments.
	BaseURL string

	// Timeout specifies the timeout for GitHub API requests.
	// Defaults to 30 seconds if zero.
	Timeout time.Duration

	// Proxy routes all client traffic through an HTTP proxy when enabled.
	Proxy ProxyConfig
}

// ProxyConfig holds an optional outbound proxy endpoint with credentials.
type ProxyConfig struct {
	Enabled  bool
	URL      string
	Username string
	Password string
}

// DefaultConfig returns a default configuration for the GitHub client.
func DefaultConfig() Config {
	//nolint:exhaustruct,mnd //default values
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: 30 * time.Second,
	}
}
