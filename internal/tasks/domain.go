package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	defaultWorkers = 3

	// maxRetained bounds how many finished tasks stay queryable; the
	// oldest are pruned first.
	maxRetained = 256
)

type Config struct {
	// Workers bounds how many tasks run at once.
	Workers int
}

func (c Config) workers() int {
	if c.Workers <= 0 {
		return defaultWorkers
	}
	return c.Workers
}

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Job is the unit of background work. Its return value becomes the task
// result visible to pollers.
type Job func(ctx context.Context) (any, error)

// Task is a submitted job's observable state. Callers poll it by ID.
type Task struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Result     any        `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
}
