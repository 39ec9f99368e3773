package monitor

import (
	"time"

	"github.com/DeanWanghewei/mirror-git/internal/history"
	"github.com/google/uuid"
)

// DashboardResponse aggregates repository and sync state for the dashboard.
type DashboardResponse struct {
	Repositories   RepositoryCounts `json:"repositories"`
	Attempts       history.Stats    `json:"attempts"`
	TotalSizeBytes int64            `json:"total_size_bytes"`
	RecentAttempts []AttemptSummary `json:"recent_attempts"`
}

type RepositoryCounts struct {
	Total   int `json:"total"`
	Enabled int `json:"enabled"`
	Failed  int `json:"failed"`
}

type AttemptSummary struct {
	ID         uuid.UUID `json:"id"`
	Repository string    `json:"repository"`
	Operation  string    `json:"operation_type"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
}

func newAttemptSummary(attempt *history.Attempt) AttemptSummary {
	return AttemptSummary{
		ID:         attempt.ID,
		Repository: attempt.Repository,
		Operation:  string(attempt.Operation),
		Status:     string(attempt.Status),
		Error:      attempt.Error,
		FinishedAt: attempt.FinishedAt,
		DurationMS: attempt.Duration().Milliseconds(),
	}
}
