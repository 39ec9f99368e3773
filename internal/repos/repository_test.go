package repos

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(db)
}

func TestRepository_CreateUniqueSource(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	draft := RecordDraft{
		Name:      "demo",
		SourceURL: "https://github.com/acme/demo.git",
		Enabled:   true,
	}

	record, err := repo.Create(ctx, &draft)
	require.NoError(t, err)
	assert.Equal(t, SyncStatusPending, record.LastSyncStatus)

	// Same source into the same (default) namespace conflicts.
	_, err = repo.Create(ctx, &draft)
	require.ErrorIs(t, err, ErrConflict)

	// Same source into another namespace is allowed.
	other := draft
	other.Namespace = "mirrors"
	_, err = repo.Create(ctx, &other)
	require.NoError(t, err)
}

func TestRepository_GetBySource(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &RecordDraft{
		Name:      "demo",
		SourceURL: "https://github.com/acme/demo.git",
		Namespace: "mirrors",
	})
	require.NoError(t, err)

	found, err := repo.GetBySource(ctx, "https://github.com/acme/demo.git", "mirrors")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.GetBySource(ctx, "https://github.com/acme/demo.git", "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_UpdateKeepsSource(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &RecordDraft{
		Name:      "demo",
		SourceURL: "https://github.com/acme/demo.git",
		Enabled:   true,
	})
	require.NoError(t, err)

	updated, err := repo.Update(ctx, created.ID, func(record *Record) error {
		record.Enabled = false
		return nil
	})
	require.NoError(t, err)
	assert.False(t, updated.Enabled)

	_, err = repo.Update(ctx, created.ID, func(record *Record) error {
		record.SourceURL = "https://github.com/acme/other.git"
		return nil
	})
	require.ErrorIs(t, err, ErrNotAllowed)
}

func TestRepository_ListEnabled(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, &RecordDraft{
		Name:      "on",
		SourceURL: "https://github.com/acme/on.git",
		Enabled:   true,
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &RecordDraft{
		Name:      "off",
		SourceURL: "https://github.com/acme/off.git",
		Enabled:   false,
	})
	require.NoError(t, err)

	enabled, err := repo.ListEnabled(ctx)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "on", enabled[0].Name)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepository_DeleteFreesSource(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	draft := RecordDraft{
		Name:      "demo",
		SourceURL: "https://github.com/acme/demo.git",
	}

	created, err := repo.Create(ctx, &draft)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.GetByID(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// The source slot is free again after deletion.
	_, err = repo.Create(ctx, &draft)
	require.NoError(t, err)
}
