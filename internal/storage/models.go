package storage

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity provides common fields for all storage entities.
type BaseEntity struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBaseEntity returns a BaseEntity with a fresh id and timestamps.
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touched returns a copy with UpdatedAt stamped to now, keeping the
// identity fields intact.
func (e BaseEntity) Touched() BaseEntity {
	e.UpdatedAt = time.Now()
	return e
}
