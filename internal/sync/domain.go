package sync

import (
	"context"
	"time"

	"github.com/DeanWanghewei/mirror-git/internal/gitea"
	"github.com/DeanWanghewei/mirror-git/internal/history"
	"github.com/DeanWanghewei/mirror-git/internal/repos"
	"github.com/google/uuid"
)

const (
	defaultRetryCount  = 3
	defaultPushTimeout = 30 * time.Minute
	defaultConcurrency = 3

	retryBaseDelay = 5 * time.Second
)

type Config struct {
	// LocalPath is the root of the working-copy store; one subdirectory
	// per repository name.
	LocalPath string

	// RetryCount bounds clone/update attempts per sync.
	RetryCount int

	// PushTimeout is the wall-clock budget of the push step.
	PushTimeout time.Duration

	// Concurrency bounds how many repositories SyncAll processes in
	// parallel.
	Concurrency int

	Destination DestinationConfig
	Proxy       ProxyConfig
}

type DestinationConfig struct {
	BaseURL  string
	Username string
	Token    string
}

type ProxyConfig struct {
	Enabled  bool
	URL      string
	Username string
	Password string
}

func (c Config) retryCount() int {
	if c.RetryCount <= 0 {
		return defaultRetryCount
	}
	return c.RetryCount
}

func (c Config) pushTimeout() time.Duration {
	if c.PushTimeout <= 0 {
		return defaultPushTimeout
	}
	return c.PushTimeout
}

func (c Config) concurrency() int {
	if c.Concurrency <= 0 {
		return defaultConcurrency
	}
	return c.Concurrency
}

// SyncRequest identifies one repository to mirror. RecordID may be zero for
// ad-hoc syncs that have no persistent record behind them.
type SyncRequest struct {
	RecordID  uuid.UUID
	Name      string
	SourceURL string
	Namespace string
}

// Result is the outcome of one SyncRepository call. The engine never lets
// an error escape; everything a caller needs is in here.
type Result struct {
	Status         history.Status    `json:"status"`
	Repository     string            `json:"repository"`
	Operation      history.Operation `json:"operation_type"`
	Duration       time.Duration     `json:"duration"`
	Error          string            `json:"error,omitempty"`
	Message        string            `json:"message,omitempty"`
	FailedBranches []string          `json:"failed_branches,omitempty"`
}

// BatchResult aggregates a SyncAll run. Results keep the call order.
type BatchResult struct {
	Total   int      `json:"total"`
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Results []Result `json:"results"`
}

// Destination is the slice of the destination API the engine needs.
type Destination interface {
	RepositoryExists(ctx context.Context, owner, name string) bool
	CreateRepository(ctx context.Context, req gitea.CreateRepositoryRequest) (*gitea.RepoInfo, error)
}

// RecordStore lets the engine load scheduled work and write outcomes back.
type RecordStore interface {
	ListEnabled(ctx context.Context) ([]repos.Record, error)
	SetSyncing(ctx context.Context, id uuid.UUID) error
	RecordSyncResult(ctx context.Context, id uuid.UUID, outcome repos.SyncOutcome) error
}

// HistoryStore receives one attempt per engine invocation.
type HistoryStore interface {
	Append(ctx context.Context, draft history.AttemptDraft) (*history.Attempt, error)
}

// Transport covers the git operations the engine orchestrates. Retry and
// fallback policy lives in the engine, not here.
type Transport interface {
	WorkingCopyExists(path string) bool
	Clone(ctx context.Context, sourceURL, path string) error
	Update(ctx context.Context, path, sourceURL string) error
	PushAll(ctx context.Context, path, destURL string) error
	PushBranch(ctx context.Context, path, destURL, branch string) error
	PushTags(ctx context.Context, path, destURL string) error
	Branches(path string) ([]string, error)
}
