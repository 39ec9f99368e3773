package history

import (
	"context"
	"testing"
	"time"

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

func appendAttempt(t *testing.T, repo *Repository, name string, status Status, started time.Time) *Attempt {
	t.Helper()

	attempt, err := repo.Append(context.Background(), &AttemptDraft{
		Repository: name,
		Operation:  OperationSync,
		Status:     status,
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
	})
	require.NoError(t, err)

	return attempt
}

func TestRepository_ListNewestFirst(t *testing.T) {
	repo := newTestRepository(t)
	base := time.Now()

	appendAttempt(t, repo, "alpha", StatusSuccess, base)
	appendAttempt(t, repo, "beta", StatusFailed, base.Add(time.Minute))
	appendAttempt(t, repo, "alpha", StatusSuccess, base.Add(2*time.Minute))

	attempts, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, attempts, 3)

	assert.Equal(t, "alpha", attempts[0].Repository)
	assert.Equal(t, "beta", attempts[1].Repository)
	assert.Equal(t, "alpha", attempts[2].Repository)
}

func TestRepository_ListLimit(t *testing.T) {
	repo := newTestRepository(t)
	base := time.Now()

	for i := range 5 {
		appendAttempt(t, repo, "alpha", StatusSuccess, base.Add(time.Duration(i)*time.Minute))
	}

	attempts, err := repo.List(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, attempts, 2)
}

func TestRepository_ListByRepository(t *testing.T) {
	repo := newTestRepository(t)
	base := time.Now()

	appendAttempt(t, repo, "alpha", StatusSuccess, base)
	appendAttempt(t, repo, "beta", StatusFailed, base.Add(time.Minute))
	appendAttempt(t, repo, "alpha", StatusFailed, base.Add(2*time.Minute))

	attempts, err := repo.ListByRepository(context.Background(), "alpha", 0)
	require.NoError(t, err)
	require.Len(t, attempts, 2)

	assert.Equal(t, StatusFailed, attempts[0].Status)
	assert.Equal(t, StatusSuccess, attempts[1].Status)
}

func TestRepository_DeleteByRepository(t *testing.T) {
	repo := newTestRepository(t)
	base := time.Now()

	appendAttempt(t, repo, "alpha", StatusSuccess, base)
	appendAttempt(t, repo, "alpha", StatusFailed, base.Add(time.Minute))
	appendAttempt(t, repo, "beta", StatusSuccess, base.Add(2*time.Minute))

	deleted, err := repo.DeleteByRepository(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	remaining, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "beta", remaining[0].Repository)
}

func TestRepository_Stats(t *testing.T) {
	repo := newTestRepository(t)
	base := time.Now()

	appendAttempt(t, repo, "alpha", StatusSuccess, base)
	appendAttempt(t, repo, "beta", StatusFailed, base.Add(time.Minute))
	appendAttempt(t, repo, "gamma", StatusSuccess, base.Add(2*time.Minute))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 3, Success: 2, Failed: 1}, stats)
}
