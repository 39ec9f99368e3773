package sync

import (
	"time"

	"github.com/DeanWanghewei/mirror-git/internal/history"
	"github.com/google/uuid"
)

// StatusResponse summarizes the mirrored set and its sync outcomes.
type StatusResponse struct {
	Repositories RepositoryCounts `json:"repositories"`
	Attempts     history.Stats    `json:"attempts"`
}

type RepositoryCounts struct {
	Total   int `json:"total"`
	Enabled int `json:"enabled"`
	Failed  int `json:"failed"`
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
