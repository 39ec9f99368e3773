package githubfx

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/go-github/v82/github"
	"golang.org/x/oauth2"
)

// NewClient creates a GitHub API client with the given configuration.
// Without a token the client is unauthenticated and limited to public
// repositories.
func NewClient(cfg Config) (*github.Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	transport := http.DefaultTransport
	if cfg.Proxy.Enabled && cfg.Proxy.URL != "" {
		proxyURL, err := cfg.Proxy.build()
		if err != nil {
			return nil, err
		}
		transport = &http.Transport{
			Proxy: http.ProxyURL(proxyURL),
		}
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}

	if cfg.Token != "" {
		source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		base := httpClient.Transport
		httpClient.Transport = &oauth2.Transport{
			Source: source,
			Base:   base,
		}
	}

	client := github.NewClient(httpClient)

	// go-github already points at api.github.com; enterprise URLs are only
	// needed for self-hosted deployments.
	if cfg.BaseURL != "" && cfg.BaseURL != DefaultBaseURL {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
		}
	}

	return client, nil
}

func (p ProxyConfig) build() (*url.URL, error) {
	proxyURL, err := url.Parse(p.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProxyURL, err)
	}

	if p.Username != "" {
		proxyURL.User = url.UserPassword(p.Username, p.Password)
	}

	return proxyURL, nil
}
