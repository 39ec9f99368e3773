package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v6"
	gitconfig "github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing"
	gittransport "github.com/go-git/go-git/v6/plumbing/transport"
	"go.uber.org/zap"
)

const (
	sourceRemote      = "origin"
	destinationRemote = "mirror"

	headsRefSpec = "+refs/heads/*:refs/heads/*"
	tagsRefSpec  = "+refs/tags/*:refs/tags/*"
)

// gitTransport performs the raw git operations over the smart HTTP
// protocol. It carries no retry logic; failures surface as-is so the
// engine can classify them.
type gitTransport struct {
	proxy gittransport.ProxyOptions

	logger *zap.Logger
}

func NewTransport(config Config, logger *zap.Logger) Transport {
	proxy := gittransport.ProxyOptions{}
	if config.Proxy.Enabled && config.Proxy.URL != "" {
		proxy = gittransport.ProxyOptions{
			URL:      config.Proxy.URL,
			Username: config.Proxy.Username,
			Password: config.Proxy.Password,
		}
	}

	return &gitTransport{
		proxy:  proxy,
		logger: logger,
	}
}

// WorkingCopyExists reports whether a git working copy is present at path.
// The on-disk state, not the record, decides clone vs. update.
func (t *gitTransport) WorkingCopyExists(path string) bool {
	_, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil
}

// Clone materializes a full copy of the source, branches and tags included.
func (t *gitTransport) Clone(ctx context.Context, sourceURL, path string) error {
	t.logger.Info("cloning repository", zap.String("url", sourceURL), zap.String("path", path))

	_, err := git.PlainCloneContext(ctx, path, &git.CloneOptions{
		URL:          sourceURL,
		Tags:         git.AllTags,
		ProxyOptions: t.proxy,
	})
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", sourceURL, err)
	}

	return nil
}

// Update force-fetches all heads and tags from the source, overwriting
// local refs with the remote's state. Local-only commits on tracked
// branches are discarded; this is a one-directional mirror.
func (t *gitTransport) Update(ctx context.Context, path, sourceURL string) error {
	t.logger.Info("updating repository", zap.String("url", sourceURL), zap.String("path", path))

	repo, err := git.PlainOpen(path)
	if err != nil {
		return fmt.Errorf("failed to open working copy: %w", err)
	}

	if err := t.ensureRemote(repo, sourceRemote, sourceURL); err != nil {
		return err
	}

	// Fetching into the currently checked-out branch is refused, so point
	// HEAD at the commit itself first. Failure is tolerated; the fetch may
	// still go through.
	if head, headErr := repo.Head(); headErr == nil {
		detached := plumbing.NewHashReference(plumbing.HEAD, head.Hash())
		if setErr := repo.Storer.SetReference(detached); setErr != nil {
			t.logger.Warn("failed to detach HEAD", zap.String("path", path), zap.Error(setErr))
		}
	}

	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName:   sourceRemote,
		RefSpecs:     []gitconfig.RefSpec{headsRefSpec, tagsRefSpec},
		Tags:         git.AllTags,
		Force:        true,
		ProxyOptions: t.proxy,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to fetch %s: %w", sourceURL, err)
	}

	return nil
}

// PushAll pushes every branch and tag to the destination in one operation.
func (t *gitTransport) PushAll(ctx context.Context, path, destURL string) error {
	return t.push(ctx, path, destURL, []gitconfig.RefSpec{headsRefSpec, tagsRefSpec})
}

// PushBranch pushes a single branch; the degraded path when the bulk push
// exceeds the destination's size limit.
func (t *gitTransport) PushBranch(ctx context.Context, path, destURL, branch string) error {
	spec := gitconfig.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/heads/%s", branch, branch))
	return t.push(ctx, path, destURL, []gitconfig.RefSpec{spec})
}

// PushTags pushes all tags.
func (t *gitTransport) PushTags(ctx context.Context, path, destURL string) error {
	return t.push(ctx, path, destURL, []gitconfig.RefSpec{tagsRefSpec})
}

func (t *gitTransport) push(ctx context.Context, path, destURL string, refSpecs []gitconfig.RefSpec) error {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return fmt.Errorf("failed to open working copy: %w", err)
	}

	if err := t.ensureRemote(repo, destinationRemote, destURL); err != nil {
		return err
	}

	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName:   destinationRemote,
		RefSpecs:     refSpecs,
		Force:        true,
		FollowTags:   true,
		ProxyOptions: t.proxy,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push: %w", err)
	}

	return nil
}

// Branches lists the local branch names of a working copy.
func (t *gitTransport) Branches(path string) ([]string, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open working copy: %w", err)
	}

	iter, err := repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}

	var branches []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		branches = append(branches, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate branches: %w", err)
	}

	return branches, nil
}

// ensureRemote points the named remote at url, creating or repointing it
// as needed.
func (t *gitTransport) ensureRemote(repo *git.Repository, name, url string) error {
	remote, err := repo.Remote(name)
	if err == nil {
		if cfg := remote.Config(); len(cfg.URLs) > 0 && cfg.URLs[0] == url {
			return nil
		}

		if delErr := repo.DeleteRemote(name); delErr != nil {
			return fmt.Errorf("failed to repoint remote %s: %w", name, delErr)
		}
	} else if !errors.Is(err, git.ErrRemoteNotFound) {
		return fmt.Errorf("failed to inspect remote %s: %w", name, err)
	}

	if _, crErr := repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: name,
		URLs: []string{url},
	}); crErr != nil {
		return fmt.Errorf("failed to create remote %s: %w", name, crErr)
	}

	return nil
}
