package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SyncStatus tracks the last engine outcome for a record.
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSyncing SyncStatus = "syncing"
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusFailed  SyncStatus = "failed"
)

// RecordDraft carries the caller-supplied fields of a mirrored repository.
type RecordDraft struct {
	// Name is the display name and the working-copy directory key.
	Name string

	// SourceURL is the origin location, normalized to the canonical
	// suffixed form on creation.
	SourceURL string

	// Namespace is the destination organization override. Empty means the
	// default destination user.
	Namespace string

	// Enabled gates scheduled syncs; disabled records still sync on demand.
	Enabled bool
}

// RecordUpdate adds the engine-owned fields.
type RecordUpdate struct {
	RecordDraft

	LocalPath      string
	SizeBytes      int64
	LastSyncStatus SyncStatus
	LastSyncTime   *time.Time
	LastSyncError  string
}

type Record struct {
	RecordUpdate

	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SyncOutcome is what the engine reports back after a sync attempt.
type SyncOutcome struct {
	Status    SyncStatus
	Error     string
	LocalPath string
	SizeBytes int64
	When      time.Time
}

// DeleteOptions selects which side effects accompany a record deletion.
type DeleteOptions struct {
	RemoveLocal       bool
	RemoveDestination bool
	RemoveHistory     bool
}

// DestinationRemover deletes the mirrored repository on the destination
// host during a cascading delete.
type DestinationRemover interface {
	DeleteRepository(ctx context.Context, owner, name string) (bool, error)
	Username() string
}

// HistoryRemover purges the sync history of a repository during a
// cascading delete.
type HistoryRemover interface {
	DeleteByRepository(ctx context.Context, repository string) (int, error)
}
