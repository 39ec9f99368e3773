package repos

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/DeanWanghewei/mirror-git/internal/giturl"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	records *Repository

	destination DestinationRemover
	history     HistoryRemover

	logger *zap.Logger
}

func NewService(
	records *Repository,
	destination DestinationRemover,
	history HistoryRemover,
	logger *zap.Logger,
) *Service {
	return &Service{
		records: records,

		destination: destination,
		history:     history,

		logger: logger,
	}
}

// Create registers a repository for mirroring. The source URL is normalized
// to its canonical suffixed form; an empty name defaults to the repository
// segment of the URL.
func (s *Service) Create(ctx context.Context, draft RecordDraft) (*Record, error) {
	draft.SourceURL = giturl.Normalize(draft.SourceURL)

	if draft.Name == "" {
		_, repo, err := giturl.ExtractOwnerRepo(draft.SourceURL)
		if err != nil {
			s.logger.Error("failed to derive repository name", zap.String("url", draft.SourceURL), zap.Error(err))
			return nil, fmt.Errorf("failed to derive repository name: %w", err)
		}
		draft.Name = repo
	}

	if strings.ContainsAny(draft.Name, "/\\") || draft.Name == "." || draft.Name == ".." {
		return nil, fmt.Errorf("%w: repository name %q is not a valid path segment", ErrNotAllowed, draft.Name)
	}

	record, err := s.records.Create(ctx, &draft)
	if err != nil {
		s.logger.Error("failed to create record", zap.String("name", draft.Name), zap.Error(err))
		return nil, err
	}

	s.logger.Info("repository registered",
		zap.String("id", record.ID.String()),
		zap.String("name", record.Name),
		zap.String("source", record.SourceURL))

	return record, nil
}

// Get retrieves a record by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get record", zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}

	return record, nil
}

// List retrieves all records.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		s.logger.Error("failed to list records", zap.Error(err))
		return nil, err
	}

	return records, nil
}

// ListEnabled retrieves the records eligible for scheduled sync.
func (s *Service) ListEnabled(ctx context.Context) ([]Record, error) {
	records, err := s.records.ListEnabled(ctx)
	if err != nil {
		s.logger.Error("failed to list enabled records", zap.Error(err))
		return nil, err
	}

	return records, nil
}

// Update applies caller edits to a record.
func (s *Service) Update(ctx context.Context, id uuid.UUID, updater func(*Record) error) (*Record, error) {
	s.logger.Info("updating record", zap.String("id", id.String()))

	record, err := s.records.Update(ctx, id, updater)
	if err != nil {
		s.logger.Error("failed to update record", zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}

	return record, nil
}

// Delete removes a record, optionally cascading to the local working copy,
// the destination repository, and the sync history. Cascade failures are
// logged and do not block removal of the record itself.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, opts DeleteOptions) error {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if opts.RemoveDestination {
		owner := record.Namespace
		if owner == "" {
			owner = s.destination.Username()
		}

		if _, delErr := s.destination.DeleteRepository(ctx, owner, record.Name); delErr != nil {
			s.logger.Warn("failed to delete destination repository",
				zap.String("repo", owner+"/"+record.Name),
				zap.Error(delErr))
		}
	}

	if opts.RemoveLocal && record.LocalPath != "" {
		if rmErr := os.RemoveAll(record.LocalPath); rmErr != nil {
			s.logger.Warn("failed to remove working copy",
				zap.String("path", record.LocalPath),
				zap.Error(rmErr))
		}
	}

	if opts.RemoveHistory {
		if _, delErr := s.history.DeleteByRepository(ctx, record.Name); delErr != nil {
			s.logger.Warn("failed to delete sync history",
				zap.String("name", record.Name),
				zap.Error(delErr))
		}
	}

	if err := s.records.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete record", zap.String("id", id.String()), zap.Error(err))
		return err
	}

	s.logger.Info("repository removed", zap.String("id", id.String()), zap.String("name", record.Name))
	return nil
}

// SetSyncing marks a record as having a sync in flight. Only the engine
// calls this.
func (s *Service) SetSyncing(ctx context.Context, id uuid.UUID) error {
	_, err := s.records.Update(ctx, id, func(record *Record) error {
		record.LastSyncStatus = SyncStatusSyncing
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark record syncing: %w", err)
	}

	return nil
}

// RecordSyncResult writes the engine's outcome back onto the record. Only
// the engine calls this.
func (s *Service) RecordSyncResult(ctx context.Context, id uuid.UUID, outcome SyncOutcome) error {
	_, err := s.records.Update(ctx, id, func(record *Record) error {
		record.LastSyncStatus = outcome.Status
		record.LastSyncError = outcome.Error

		when := outcome.When
		record.LastSyncTime = &when

		if outcome.Status == SyncStatusSuccess {
			record.LocalPath = outcome.LocalPath
			record.SizeBytes = outcome.SizeBytes
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record sync outcome: %w", err)
	}

	return nil
}
