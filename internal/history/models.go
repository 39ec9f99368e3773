package history

import (
	"time"

	"github.com/google/uuid"
)

// attemptModel is the stored form of a sync attempt.
type attemptModel struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Repository string        `json:"repository"`
	Operation  Operation     `json:"operation"`
	Status     Status        `json:"status"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`
}

func newAttemptModel(draft *AttemptDraft) *attemptModel {
	if draft == nil {
		return nil
	}

	return &attemptModel{
		ID:        uuid.New(),
		CreatedAt: time.Now(),

		Repository: draft.Repository,
		Operation:  draft.Operation,
		Status:     draft.Status,
		Error:      draft.Error,
		StartedAt:  draft.StartedAt,
		FinishedAt: draft.FinishedAt,
		Duration:   draft.Duration(),
	}
}

func newAttempt(model *attemptModel) *Attempt {
	if model == nil {
		return nil
	}

	return &Attempt{
		AttemptDraft: AttemptDraft{
			Repository: model.Repository,
			Operation:  model.Operation,
			Status:     model.Status,
			Error:      model.Error,
			StartedAt:  model.StartedAt,
			FinishedAt: model.FinishedAt,
		},
		ID:        model.ID,
		CreatedAt: model.CreatedAt,
	}
}
