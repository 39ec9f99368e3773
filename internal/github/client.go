package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v82/github"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const pageSize = 100

// Client wraps the GitHub API for the read-only operations the mirror
// engine needs. It never mutates source state and performs no retries;
// retry policy belongs to the engine.
type Client struct {
	api    *github.Client
	logger *zap.Logger
}

func NewClient(api *github.Client, logger *zap.Logger) *Client {
	return &Client{
		api:    api,
		logger: logger,
	}
}

// CurrentUser returns the authenticated user.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	user, _, err := c.api.Users.Get(ctx, "")
	if err != nil {
		c.logger.Error("failed to get user information", zap.Error(err))
		return nil, fmt.Errorf("failed to get user information: %w", err)
	}

	return &User{
		Login: user.GetLogin(),
		Name:  user.GetName(),
		Email: user.GetEmail(),
	}, nil
}

// GetRepository returns repository metadata, or ErrNotFound if absent.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*Repository, error) {
	repo, resp, err := c.api.Repositories.Get(ctx, owner, name)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			c.logger.Warn("repository not found",
				zap.String("owner", owner),
				zap.String("repo", name))
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, owner, name)
		}

		c.logger.Error("failed to get repository",
			zap.String("owner", owner),
			zap.String("repo", name),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get repository %s/%s: %w", owner, name, err)
	}

	return newRepository(repo), nil
}

// RepositoryExists reports whether the repository is visible to the client.
func (c *Client) RepositoryExists(ctx context.Context, owner, name string) (bool, error) {
	_, err := c.GetRepository(ctx, owner, name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// AllRepositoriesForUser lists every repository of the authenticated user,
// transparently paginating until an empty page is returned.
func (c *Client) AllRepositoriesForUser(ctx context.Context) ([]Repository, error) {
	var all []Repository

	opts := &github.RepositoryListByAuthenticatedUserOptions{
		Type:        "all",
		ListOptions: github.ListOptions{PerPage: pageSize, Page: 1},
	}

	for {
		repos, _, err := c.api.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			c.logger.Error("failed to list user repositories", zap.Error(err))
			return nil, fmt.Errorf("failed to list user repositories: %w", err)
		}
		if len(repos) == 0 {
			break
		}

		all = append(all, lo.Map(repos, func(r *github.Repository, _ int) Repository {
			return *newRepository(r)
		})...)
		opts.Page++

		c.logger.Debug("retrieved repository page",
			zap.Int("page", opts.Page-1),
			zap.Int("total", len(all)))
	}

	c.logger.Info("retrieved user repositories", zap.Int("count", len(all)))
	return all, nil
}

// CloneURL returns the clone URL of a repository for the given protocol.
func (c *Client) CloneURL(ctx context.Context, owner, name string, protocol CloneProtocol) (string, error) {
	if protocol != ProtocolHTTPS && protocol != ProtocolSSH {
		return "", fmt.Errorf("%w: %s", ErrInvalidProtocol, protocol)
	}

	repo, err := c.GetRepository(ctx, owner, name)
	if err != nil {
		return "", err
	}

	url := repo.CloneURL
	if protocol == ProtocolSSH {
		url = repo.SSHURL
	}

	if url == "" {
		return "", fmt.Errorf("%w: %s/%s", ErrNoCloneURL, owner, name)
	}

	return url, nil
}

// SearchRepositories searches public repositories matching the query,
// ordered by stars.
func (c *Client) SearchRepositories(ctx context.Context, query string) ([]Repository, error) {
	result, _, err := c.api.Search.Repositories(ctx, query, &github.SearchOptions{
		Sort:        "stars",
		ListOptions: github.ListOptions{PerPage: 10},
	})
	if err != nil {
		c.logger.Error("repository search failed", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("repository search failed: %w", err)
	}

	repos := lo.Map(result.Repositories, func(r *github.Repository, _ int) Repository {
		return *newRepository(r)
	})

	c.logger.Debug("repository search completed",
		zap.String("query", query),
		zap.Int("count", len(repos)))
	return repos, nil
}

// RepositorySize returns the repository size in kilobytes as reported by
// the API.
func (c *Client) RepositorySize(ctx context.Context, owner, name string) (int, error) {
	repo, err := c.GetRepository(ctx, owner, name)
	if err != nil {
		return 0, err
	}

	return repo.SizeKB, nil
}

// ValidateToken checks whether the configured token can authenticate.
func (c *Client) ValidateToken(ctx context.Context) bool {
	if _, err := c.CurrentUser(ctx); err != nil {
		c.logger.Error("GitHub token validation failed", zap.Error(err))
		return false
	}

	c.logger.Info("GitHub token validated successfully")
	return true
}

func newRepository(repo *github.Repository) *Repository {
	return &Repository{
		Owner:         repo.GetOwner().GetLogin(),
		Name:          repo.GetName(),
		FullName:      repo.GetFullName(),
		Description:   repo.GetDescription(),
		CloneURL:      repo.GetCloneURL(),
		SSHURL:        repo.GetSSHURL(),
		DefaultBranch: repo.GetDefaultBranch(),
		SizeKB:        repo.GetSize(),
		Private:       repo.GetPrivate(),
		Fork:          repo.GetFork(),
		Archived:      repo.GetArchived(),
	}
}
