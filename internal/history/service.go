package history

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	attempts *Repository

	logger *zap.Logger
}

func NewService(attempts *Repository, logger *zap.Logger) *Service {
	return &Service{
		attempts: attempts,
		logger:   logger,
	}
}

// Append records a finished sync attempt.
func (s *Service) Append(ctx context.Context, draft AttemptDraft) (*Attempt, error) {
	attempt, err := s.attempts.Append(ctx, &draft)
	if err != nil {
		s.logger.Error("failed to append attempt",
			zap.String("repository", draft.Repository),
			zap.Error(err))
		return nil, err
	}

	s.logger.Debug("attempt recorded",
		zap.String("repository", draft.Repository),
		zap.String("operation", string(draft.Operation)),
		zap.String("status", string(draft.Status)))

	return attempt, nil
}

// Get retrieves an attempt by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Attempt, error) {
	return s.attempts.GetByID(ctx, id)
}

// List retrieves recent attempts across all repositories, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]Attempt, error) {
	attempts, err := s.attempts.List(ctx, limit)
	if err != nil {
		s.logger.Error("failed to list attempts", zap.Error(err))
		return nil, err
	}

	return attempts, nil
}

// ListByRepository retrieves recent attempts for one repository, newest first.
func (s *Service) ListByRepository(ctx context.Context, repository string, limit int) ([]Attempt, error) {
	attempts, err := s.attempts.ListByRepository(ctx, repository, limit)
	if err != nil {
		s.logger.Error("failed to list attempts",
			zap.String("repository", repository),
			zap.Error(err))
		return nil, err
	}

	return attempts, nil
}

// DeleteByRepository purges the history of one repository.
func (s *Service) DeleteByRepository(ctx context.Context, repository string) (int, error) {
	deleted, err := s.attempts.DeleteByRepository(ctx, repository)
	if err != nil {
		s.logger.Error("failed to delete attempts",
			zap.String("repository", repository),
			zap.Error(err))
		return deleted, err
	}

	s.logger.Info("attempt history deleted",
		zap.String("repository", repository),
		zap.Int("count", deleted))

	return deleted, nil
}

// Stats aggregates attempt outcomes for the dashboard.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.attempts.Stats(ctx)
}
