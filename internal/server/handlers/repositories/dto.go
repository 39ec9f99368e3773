package repositories

import (
	"time"

	"github.com/DeanWanghewei/mirror-git/internal/history"
	"github.com/DeanWanghewei/mirror-git/internal/repos"
	"github.com/google/uuid"
)

// POSTRequest represents the request payload for registering a repository.
type POSTRequest struct {
	Name      string `json:"name"                validate:"omitempty,min=1,max=100"`
	SourceURL string `json:"source_url"          validate:"required,min=1,max=500"`
	Namespace string `json:"namespace,omitempty" validate:"omitempty,min=1,max=100"`
	Enabled   *bool  `json:"enabled,omitempty"`
}

// PATCHRequest represents the request payload for updating a repository.
type PATCHRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Enabled *bool   `json:"enabled,omitempty"`
}

// RepositoryResponse represents the response payload for a repository.
type RepositoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SourceURL string    `json:"source_url"`
	Namespace string    `json:"namespace,omitempty"`
	Enabled   bool      `json:"enabled"`

	LocalPath      string     `json:"local_path,omitempty"`
	SizeBytes      int64      `json:"size_bytes"`
	LastSyncStatus string     `json:"last_sync_status"`
	LastSyncTime   *time.Time `json:"last_sync_time,omitempty"`
	LastSyncError  string     `json:"last_sync_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newRepositoryResponse(record *repos.Record) RepositoryResponse {
	return RepositoryResponse{
		ID:        record.ID,
		Name:      record.Name,
		SourceURL: record.SourceURL,
		Namespace: record.Namespace,
		Enabled:   record.Enabled,

		LocalPath:      record.LocalPath,
		SizeBytes:      record.SizeBytes,
		LastSyncStatus: string(record.LastSyncStatus),
		LastSyncTime:   record.LastSyncTime,
		LastSyncError:  record.LastSyncError,

		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

// AttemptResponse represents one sync attempt in a history listing.
type AttemptResponse struct {
	ID         uuid.UUID `json:"id"`
	Repository string    `json:"repository"`
	Operation  string    `json:"operation_type"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
}

func newAttemptResponse(attempt *history.Attempt) AttemptResponse {
	return AttemptResponse{
		ID:         attempt.ID,
		Repository: attempt.Repository,
		Operation:  string(attempt.Operation),
		Status:     string(attempt.Status),
		Error:      attempt.Error,
		StartedAt:  attempt.StartedAt,
		FinishedAt: attempt.FinishedAt,
		DurationMS: attempt.Duration().Milliseconds(),
	}
}
