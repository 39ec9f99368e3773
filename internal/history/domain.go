package history

import (
	"time"

	"github.com/google/uuid"
)

// Operation identifies which engine procedure an attempt covers.
type Operation string

const (
	OperationClone  Operation = "clone"
	OperationUpdate Operation = "update"
	OperationPush   Operation = "push"
	OperationSync   Operation = "sync"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// AttemptDraft describes a finished sync attempt to be appended.
type AttemptDraft struct {
	Repository string // repository name, the working-copy key
	Operation  Operation
	Status     Status
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns the wall-clock time the attempt took.
func (d *AttemptDraft) Duration() time.Duration {
	return d.FinishedAt.Sub(d.StartedAt)
}

// Attempt is an appended history record. Attempts are never mutated.
type Attempt struct {
	AttemptDraft

	ID        uuid.UUID
	CreatedAt time.Time
}

// Stats aggregates attempt outcomes for the dashboard.
type Stats struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}
