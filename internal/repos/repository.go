package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	prefix = "repo:"

	prefixByID     = prefix + "id:"
	prefixBySource = prefix + "source:"
)

type Repository struct {
	db *badger.DB
}

func NewRepository(db *badger.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// Create creates a new repository record. The pair (source URL, namespace)
// must be unique; the same source may be mirrored into several namespaces
// but not twice into the same one.
func (r *Repository) Create(_ context.Context, draft *RecordDraft) (*Record, error) {
	model := newRecordModel(draft)

	data, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		sourceKey := r.getBySourceKey(model.SourceURL, model.Namespace)
		if _, getErr := txn.Get(sourceKey); getErr == nil {
			return fmt.Errorf("%w: %s is already mirrored into namespace %q",
				ErrConflict, model.SourceURL, model.Namespace)
		} else if !errors.Is(getErr, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check source uniqueness: %w", getErr)
		}

		key := r.getKey(model.ID)
		if setErr := txn.Set(key, data); setErr != nil {
			return fmt.Errorf("failed to store record: %w", setErr)
		}

		if crErr := r.createIndexes(txn, model); crErr != nil {
			return fmt.Errorf("failed to create record indexes: %w", crErr)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}

	return newRecord(model), nil
}

// GetByID retrieves a record by its ID.
func (r *Repository) GetByID(_ context.Context, id uuid.UUID) (*Record, error) {
	var record *recordModel

	err := r.db.View(func(txn *badger.Txn) error {
		found, err := r.getByID(txn, id)
		if err == nil {
			record = found
		}

		return err
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get record by ID: %w", err)
	}

	return newRecord(record), nil
}

// GetBySource retrieves a record by its unique (source URL, namespace) pair.
func (r *Repository) GetBySource(ctx context.Context, sourceURL, namespace string) (*Record, error) {
	var recordID uuid.UUID

	err := r.db.View(func(txn *badger.Txn) error {
		key := r.getBySourceKey(sourceURL, namespace)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s in namespace %q", ErrNotFound, sourceURL, namespace)
		}
		if err != nil {
			return fmt.Errorf("failed to get source index: %w", err)
		}

		if valErr := item.Value(func(val []byte) error { return json.Unmarshal(val, &recordID) }); valErr != nil {
			return fmt.Errorf("failed to get record ID: %w", valErr)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get record by source: %w", err)
	}

	return r.GetByID(ctx, recordID)
}

// Update updates an existing record. Changing the source URL or namespace
// is not allowed; delete and recreate instead.
func (r *Repository) Update(_ context.Context, id uuid.UUID, updater func(*Record) error) (*Record, error) {
	var updated *recordModel

	err := r.db.Update(func(txn *badger.Txn) error {
		old, err := r.getByID(txn, id)
		if err != nil {
			return fmt.Errorf("failed to get record before update: %w", err)
		}

		record := newRecord(old)

		if updErr := updater(record); updErr != nil {
			return fmt.Errorf("failed to update record: %w", updErr)
		}

		if record.SourceURL != old.SourceURL || record.Namespace != old.Namespace {
			return fmt.Errorf("%w: source reassignment is not allowed", ErrNotAllowed)
		}

		model := newRecordUpdateModel(old, &record.RecordUpdate)

		data, err := json.Marshal(model)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}

		key := r.getKey(model.ID)
		if setErr := txn.Set(key, data); setErr != nil {
			return fmt.Errorf("failed to update record: %w", setErr)
		}

		updated = model

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to update record: %w", err)
	}

	return newRecord(updated), nil
}

// Delete deletes a record and its indexes.
func (r *Repository) Delete(_ context.Context, id uuid.UUID) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		record, err := r.getByID(txn, id)
		if err != nil {
			return fmt.Errorf("failed to get record before deletion: %w", err)
		}

		key := r.getKey(id)
		if delErr := txn.Delete(key); delErr != nil && !errors.Is(delErr, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to delete record: %w", delErr)
		}

		if rmErr := r.removeIndexes(txn, record); rmErr != nil {
			return fmt.Errorf("failed to remove record indexes: %w", rmErr)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	return nil
}

// List retrieves all records.
func (r *Repository) List(_ context.Context) ([]Record, error) {
	return r.listWhere(nil)
}

// ListEnabled retrieves the records eligible for scheduled sync.
func (r *Repository) ListEnabled(_ context.Context) ([]Record, error) {
	return r.listWhere(func(record *Record) bool { return record.Enabled })
}

func (r *Repository) listWhere(predicate func(*Record) bool) ([]Record, error) {
	var records []Record

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixByID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			if err := item.Value(func(val []byte) error {
				var record recordModel
				if err := json.Unmarshal(val, &record); err != nil {
					return fmt.Errorf("failed to unmarshal record: %w", err)
				}

				domain := newRecord(&record)
				if predicate != nil && !predicate(domain) {
					return nil
				}

				records = append(records, *domain)
				return nil
			}); err != nil {
				return fmt.Errorf("failed to unmarshal record: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	return records, nil
}

func (r *Repository) getByID(txn *badger.Txn, id uuid.UUID) (*recordModel, error) {
	key := r.getKey(id)
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var record recordModel
	if valErr := item.Value(func(val []byte) error { return json.Unmarshal(val, &record) }); valErr != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", valErr)
	}

	return &record, nil
}

// getKey generates the key for storing a record.
func (r *Repository) getKey(id uuid.UUID) []byte {
	return []byte(prefixByID + id.String())
}

// getBySourceKey generates the unique (source URL, namespace) index key.
func (r *Repository) getBySourceKey(sourceURL, namespace string) []byte {
	return []byte(prefixBySource + url.QueryEscape(sourceURL) + ":" + url.QueryEscape(namespace))
}

// createIndexes creates indexes for a record.
func (r *Repository) createIndexes(txn *badger.Txn, record *recordModel) error {
	sourceKey := r.getBySourceKey(record.SourceURL, record.Namespace)
	sourceData, err := json.Marshal(record.ID)
	if err != nil {
		return fmt.Errorf("failed to marshal record ID: %w", err)
	}
	if setErr := txn.Set(sourceKey, sourceData); setErr != nil {
		return fmt.Errorf("failed to set source index: %w", setErr)
	}

	return nil
}

// removeIndexes removes indexes for a record.
func (r *Repository) removeIndexes(txn *badger.Txn, record *recordModel) error {
	sourceKey := r.getBySourceKey(record.SourceURL, record.Namespace)
	if err := txn.Delete(sourceKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete source index: %w", err)
	}

	return nil
}
