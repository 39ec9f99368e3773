package gitea

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	apiPrefix      = "/api/v1"
	userAgent      = "Mirror-Git/1.0"
	defaultTimeout = 30 * time.Second
)

// Client talks to the Gitea REST API. It performs no retries; retry and
// fallback policy belongs to the sync engine.
type Client struct {
	config Config
	http   *http.Client
	logger *zap.Logger
}

func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport
	if config.Proxy.Enabled && config.Proxy.URL != "" {
		proxyURL, err := url.Parse(config.Proxy.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		if config.Proxy.Username != "" {
			proxyURL.User = url.UserPassword(config.Proxy.Username, config.Proxy.Password)
		}
		transport = &http.Transport{
			Proxy: http.ProxyURL(proxyURL),
		}
		logger.Debug("using proxy", zap.String("url", config.Proxy.URL))
	}

	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config: config,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		logger: logger,
	}, nil
}

// Username returns the configured destination account name.
func (c *Client) Username() string {
	return c.config.Username
}

// CurrentUser returns the authenticated user.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/user", nil, &user); err != nil {
		c.logger.Error("failed to get user information", zap.Error(err))
		return nil, err
	}

	return &user, nil
}

// ListRepositories lists repositories of the authenticated user, one page
// at a time.
func (c *Client) ListRepositories(ctx context.Context, page, limit int) ([]RepoInfo, error) {
	path := fmt.Sprintf("/user/repos?page=%d&limit=%d", page, limit)

	var repos []RepoInfo
	if err := c.do(ctx, http.MethodGet, path, nil, &repos); err != nil {
		c.logger.Error("failed to list repositories", zap.Error(err))
		return nil, err
	}

	c.logger.Debug("retrieved repositories", zap.Int("page", page), zap.Int("count", len(repos)))
	return repos, nil
}

// RepositoryExists reports whether owner/name exists on the server.
func (c *Client) RepositoryExists(ctx context.Context, owner, name string) bool {
	if _, err := c.GetRepository(ctx, owner, name); err != nil {
		c.logger.Debug("repository existence check failed",
			zap.String("repo", owner+"/"+name),
			zap.Error(err))
		return false
	}

	return true
}

// CreateRepository creates a repository under the organization namespace
// when req.Org is set, otherwise under the authenticated user.
//
// Failure kinds are distinguished so callers can react: ErrAlreadyExists
// (422), ErrPermissionDenied (403, carries token-scope guidance) and
// ErrNotFound (404, bad organization or endpoint).
func (c *Client) CreateRepository(ctx context.Context, req CreateRepositoryRequest) (*RepoInfo, error) {
	payload := map[string]any{
		"name":        req.Name,
		"description": req.Description,
		"private":     req.Private,
		"auto_init":   false,
	}

	path := "/user/repos"
	location := req.Name
	if req.Org != "" {
		path = "/orgs/" + req.Org + "/repos"
		location = req.Org + "/" + req.Name
	}

	var repo RepoInfo
	err := c.do(ctx, http.MethodPost, path, payload, &repo)
	if err != nil {
		switch {
		case isStatus(err, http.StatusUnprocessableEntity):
			c.logger.Warn("repository already exists", zap.String("location", location))
			return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, location)
		case isStatus(err, http.StatusForbidden):
			msg := fmt.Sprintf(
				"creating repository %s requires the 'repo', 'admin:repo_hook' and, for organizations, "+
					"'admin:org' token scopes", location)
			c.logger.Warn(msg)
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, msg)
		case isStatus(err, http.StatusNotFound):
			c.logger.Warn("organization or endpoint not found", zap.String("location", location))
			return nil, fmt.Errorf("%w: organization or repository endpoint %s", ErrNotFound, location)
		}

		c.logger.Error("failed to create repository", zap.String("location", location), zap.Error(err))
		return nil, err
	}

	c.logger.Info("repository created", zap.String("location", location))
	return &repo, nil
}

// GetRepository returns repository metadata, or ErrNotFound if absent.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*RepoInfo, error) {
	var repo RepoInfo
	err := c.do(ctx, http.MethodGet, "/repos/"+owner+"/"+name, nil, &repo)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("%w: repository %s/%s", ErrNotFound, owner, name)
		}

		c.logger.Error("failed to get repository",
			zap.String("repo", owner+"/"+name),
			zap.Error(err))
		return nil, err
	}

	return &repo, nil
}

// UpdateRepository patches repository settings.
func (c *Client) UpdateRepository(ctx context.Context, owner, name string, req UpdateRepositoryRequest) (*RepoInfo, error) {
	var repo RepoInfo
	if err := c.do(ctx, http.MethodPatch, "/repos/"+owner+"/"+name, req, &repo); err != nil {
		c.logger.Error("failed to update repository",
			zap.String("repo", owner+"/"+name),
			zap.Error(err))
		return nil, err
	}

	c.logger.Info("repository updated", zap.String("repo", owner+"/"+name))
	return &repo, nil
}

// DeleteRepository removes a repository. A repository that is already
// absent is not an error; the call reports false instead.
func (c *Client) DeleteRepository(ctx context.Context, owner, name string) (bool, error) {
	err := c.do(ctx, http.MethodDelete, "/repos/"+owner+"/"+name, nil, nil)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			c.logger.Warn("repository not found", zap.String("repo", owner+"/"+name))
			return false, nil
		}

		c.logger.Error("failed to delete repository",
			zap.String("repo", owner+"/"+name),
			zap.Error(err))
		return false, err
	}

	c.logger.Info("repository deleted", zap.String("repo", owner+"/"+name))
	return true, nil
}

// CreateWebhook registers a push webhook on the repository.
func (c *Client) CreateWebhook(ctx context.Context, owner, name, hookURL string, events []string) (*Webhook, error) {
	if len(events) == 0 {
		events = []string{"push", "pull_request"}
	}

	payload := map[string]any{
		"type": "gitea",
		"config": map[string]string{
			"url":          hookURL,
			"http_method":  http.MethodPost,
			"content_type": "json",
		},
		"events": events,
		"active": true,
	}

	var webhook Webhook
	if err := c.do(ctx, http.MethodPost, "/repos/"+owner+"/"+name+"/hooks", payload, &webhook); err != nil {
		c.logger.Error("failed to create webhook",
			zap.String("repo", owner+"/"+name),
			zap.Error(err))
		return nil, err
	}

	c.logger.Info("webhook created", zap.String("repo", owner+"/"+name))
	return &webhook, nil
}

// ValidateToken checks whether the configured token can authenticate.
func (c *Client) ValidateToken(ctx context.Context) bool {
	if _, err := c.CurrentUser(ctx); err != nil {
		c.logger.Error("Gitea token validation failed", zap.Error(err))
		return false
	}

	c.logger.Info("Gitea token validated successfully")
	return true
}

// ServerVersion returns the Gitea server version string.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	var data struct {
		Version string `json:"version"`
	}
	if err := c.do(ctx, http.MethodGet, "/version", nil, &data); err != nil {
		c.logger.Error("failed to get server version", zap.Error(err))
		return "", err
	}

	c.logger.Debug("gitea server version", zap.String("version", data.Version))
	return data.Version, nil
}

type statusError struct {
	Status  int
	Message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Message)
}

func isStatus(err error, status int) bool {
	var statusErr *statusError
	return errors.As(err, &statusErr) && statusErr.Status == status
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+apiPrefix+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Authorization", "token "+c.config.Token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(message)),
		}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
