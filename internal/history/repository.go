package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/DeanWanghewei/mirror-git/pkg/badgerfx"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	prefix = "history:"

	prefixByID   = prefix + "id:"
	prefixByTime = prefix + "time:"
	prefixByRepo = prefix + "repo:"
)

type Repository struct {
	db *badger.DB
}

func NewRepository(db *badger.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// Append stores a finished attempt. Attempts are append-only; there is no
// update path.
func (r *Repository) Append(_ context.Context, draft *AttemptDraft) (*Attempt, error) {
	model := newAttemptModel(draft)

	data, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attempt: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		key := r.getKey(model.ID)
		if setErr := txn.Set(key, data); setErr != nil {
			return fmt.Errorf("failed to store attempt: %w", setErr)
		}

		if crErr := r.createIndexes(txn, model); crErr != nil {
			return fmt.Errorf("failed to create attempt indexes: %w", crErr)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to append attempt: %w", err)
	}

	return newAttempt(model), nil
}

// GetByID retrieves a single attempt.
func (r *Repository) GetByID(_ context.Context, id uuid.UUID) (*Attempt, error) {
	var attempt *attemptModel

	err := r.db.View(func(txn *badger.Txn) error {
		found, err := r.getByID(txn, id)
		if err == nil {
			attempt = found
		}

		return err
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get attempt by ID: %w", err)
	}

	return newAttempt(attempt), nil
}

// List retrieves attempts across all repositories, newest first, up to limit.
// A non-positive limit returns everything.
func (r *Repository) List(_ context.Context, limit int) ([]Attempt, error) {
	var attempts []Attempt

	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		attempts, err = r.listByIndex(txn, []byte(prefixByTime), limit)
		return err
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	return attempts, nil
}

// ListByRepository retrieves attempts for one repository, newest first.
func (r *Repository) ListByRepository(_ context.Context, repository string, limit int) ([]Attempt, error) {
	var attempts []Attempt

	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		attempts, err = r.listByIndex(txn, r.getRepoPrefix(repository), limit)
		return err
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	return attempts, nil
}

// DeleteByRepository removes every attempt recorded for a repository and
// returns how many were deleted.
func (r *Repository) DeleteByRepository(_ context.Context, repository string) (int, error) {
	deleted := 0

	err := r.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)

		prefix := r.getRepoPrefix(repository)

		var indexKeys [][]byte
		var ids []uuid.UUID

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			var id uuid.UUID
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &id) }); err != nil {
				it.Close()
				return fmt.Errorf("failed to unmarshal attempt ID: %w", err)
			}

			indexKeys = append(indexKeys, item.KeyCopy(nil))
			ids = append(ids, id)
		}
		it.Close()

		for i, id := range ids {
			attempt, err := r.getByID(txn, id)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return err
			}

			if delErr := txn.Delete(r.getKey(id)); delErr != nil && !errors.Is(delErr, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to delete attempt: %w", delErr)
			}

			timeKey := r.getTimeKey(attempt)
			if delErr := txn.Delete(timeKey); delErr != nil && !errors.Is(delErr, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to delete time index: %w", delErr)
			}

			if delErr := txn.Delete(indexKeys[i]); delErr != nil && !errors.Is(delErr, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to delete repository index: %w", delErr)
			}

			deleted++
		}

		return nil
	})

	if err != nil {
		return deleted, fmt.Errorf("failed to delete attempts: %w", err)
	}

	return deleted, nil
}

// Stats counts attempts by outcome.
func (r *Repository) Stats(_ context.Context) (Stats, error) {
	var stats Stats

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixByID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			if err := item.Value(func(val []byte) error {
				var attempt attemptModel
				if err := json.Unmarshal(val, &attempt); err != nil {
					return fmt.Errorf("failed to unmarshal attempt: %w", err)
				}

				stats.Total++
				if attempt.Status == StatusSuccess {
					stats.Success++
				} else {
					stats.Failed++
				}

				return nil
			}); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return stats, fmt.Errorf("failed to count attempts: %w", err)
	}

	return stats, nil
}

func (r *Repository) listByIndex(txn *badger.Txn, prefix []byte, limit int) ([]Attempt, error) {
	var attempts []Attempt

	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.PrefetchSize = 10

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(append(append([]byte{}, prefix...), badgerfx.SeekEnd)); it.ValidForPrefix(prefix); it.Next() {
		if limit > 0 && len(attempts) >= limit {
			break
		}

		item := it.Item()

		if err := item.Value(func(val []byte) error {
			var id uuid.UUID
			if err := json.Unmarshal(val, &id); err != nil {
				return fmt.Errorf("failed to unmarshal attempt ID: %w", err)
			}

			attempt, err := r.getByID(txn, id)
			if err != nil {
				return err
			}

			attempts = append(attempts, *newAttempt(attempt))

			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to read attempt index: %w", err)
		}
	}

	return attempts, nil
}

func (r *Repository) getByID(txn *badger.Txn, id uuid.UUID) (*attemptModel, error) {
	key := r.getKey(id)
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	var attempt attemptModel
	if valErr := item.Value(func(val []byte) error { return json.Unmarshal(val, &attempt) }); valErr != nil {
		return nil, fmt.Errorf("failed to unmarshal attempt: %w", valErr)
	}

	return &attempt, nil
}

// getKey generates the key for storing an attempt.
func (r *Repository) getKey(id uuid.UUID) []byte {
	return []byte(prefixByID + id.String())
}

// getTimeKey generates the global chronological index key. The timestamp is
// zero-padded so lexicographic order matches chronological order.
func (r *Repository) getTimeKey(attempt *attemptModel) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", prefixByTime, attempt.CreatedAt.UnixNano(), attempt.ID.String()))
}

// getRepoPrefix generates the prefix for one repository's attempts.
func (r *Repository) getRepoPrefix(repository string) []byte {
	return []byte(prefixByRepo + url.QueryEscape(repository) + ":")
}

// getRepoKey generates the per-repository chronological index key.
func (r *Repository) getRepoKey(attempt *attemptModel) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s",
		string(r.getRepoPrefix(attempt.Repository)), attempt.CreatedAt.UnixNano(), attempt.ID.String()))
}

// createIndexes creates indexes for an attempt.
func (r *Repository) createIndexes(txn *badger.Txn, attempt *attemptModel) error {
	data, err := json.Marshal(attempt.ID)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt ID: %w", err)
	}

	if setErr := txn.Set(r.getTimeKey(attempt), data); setErr != nil {
		return fmt.Errorf("failed to set time index: %w", setErr)
	}

	if setErr := txn.Set(r.getRepoKey(attempt), data); setErr != nil {
		return fmt.Errorf("failed to set repository index: %w", setErr)
	}

	return nil
}
