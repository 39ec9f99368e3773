package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	gosync "sync"
	"time"

	"github.com/DeanWanghewei/mirror-git/internal/gitea"
	"github.com/DeanWanghewei/mirror-git/internal/giturl"
	"github.com/DeanWanghewei/mirror-git/internal/history"
	"github.com/DeanWanghewei/mirror-git/internal/repos"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Engine orchestrates one-directional mirroring: ensure the destination
// repository exists, clone or update the local working copy from the
// source, push it to the destination, record the outcome. All retry,
// backoff and fallback decisions are made here and nowhere else.
type Engine struct {
	config Config

	destination Destination
	records     RecordStore
	history     HistoryStore
	transport   Transport
	metrics     *metrics

	logger *zap.Logger

	// sleep is swapped out by tests to observe backoff without waiting.
	sleep func(time.Duration)

	mu       gosync.Mutex
	inFlight map[string]struct{}
}

func NewEngine(
	config Config,
	destination Destination,
	records RecordStore,
	historyStore HistoryStore,
	transport Transport,
	registerer prometheus.Registerer,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		config: config,

		destination: destination,
		records:     records,
		history:     historyStore,
		transport:   transport,
		metrics:     newMetrics(registerer),

		logger: logger,

		sleep: time.Sleep,

		inFlight: make(map[string]struct{}),
	}
}

// SyncRepository mirrors one repository and reports the outcome. It never
// returns an error; every failure is captured into the Result and
// persisted to history.
func (e *Engine) SyncRepository(ctx context.Context, req SyncRequest) Result {
	started := time.Now()

	if !e.acquire(req.Name) {
		e.logger.Warn("sync already in flight", zap.String("name", req.Name))
		return Result{
			Status:     history.StatusFailed,
			Repository: req.Name,
			Operation:  history.OperationSync,
			Error:      fmt.Sprintf("a sync for %q is already in progress", req.Name),
		}
	}
	defer e.release(req.Name)

	if req.RecordID != uuid.Nil {
		if err := e.records.SetSyncing(ctx, req.RecordID); err != nil {
			e.logger.Warn("failed to mark record syncing", zap.String("name", req.Name), zap.Error(err))
		}
	}

	sourceURL := giturl.Normalize(req.SourceURL)
	localPath := filepath.Join(e.config.LocalPath, req.Name)

	result := Result{
		Status:     history.StatusSuccess,
		Repository: req.Name,
		Operation:  history.OperationClone,
	}
	if e.transport.WorkingCopyExists(localPath) {
		result.Operation = history.OperationUpdate
	}

	e.logger.Info("syncing repository",
		zap.String("name", req.Name),
		zap.String("source", sourceURL),
		zap.String("operation", string(result.Operation)))

	err := e.sync(ctx, req, sourceURL, localPath, &result)
	if err != nil {
		result.Status = history.StatusFailed
		result.Error = err.Error()
		e.logger.Error("sync failed",
			zap.String("name", req.Name),
			zap.String("operation", string(result.Operation)),
			zap.Error(err))
	} else {
		e.logger.Info("sync finished",
			zap.String("name", req.Name),
			zap.String("operation", string(result.Operation)))
	}

	finished := time.Now()
	result.Duration = finished.Sub(started)

	e.record(ctx, req, result, localPath, started, finished)

	return result
}

func (e *Engine) sync(ctx context.Context, req SyncRequest, sourceURL, localPath string, result *Result) error {
	owner, err := e.ensureDestination(ctx, req, sourceURL)
	if err != nil {
		return err
	}

	if result.Operation == history.OperationUpdate {
		err = e.withRetry(transientFetch, nil, func() error {
			return e.transport.Update(ctx, localPath, sourceURL)
		})
	} else {
		err = e.withRetry(transientClone, func() {
			// A failed clone may leave a half-written directory behind;
			// the next attempt needs a clean slate.
			if rmErr := os.RemoveAll(localPath); rmErr != nil {
				e.logger.Warn("failed to clean partial clone", zap.String("path", localPath), zap.Error(rmErr))
			}
		}, func() error {
			return e.transport.Clone(ctx, sourceURL, localPath)
		})
	}
	if err != nil {
		return err
	}

	message, failedBranches, err := e.push(ctx, localPath, owner, req.Name)
	if err != nil {
		return err
	}

	result.Message = message
	result.FailedBranches = failedBranches

	return nil
}

// ensureDestination makes sure the target repository exists, creating it
// when absent. Creation in an organization namespace falls back to the
// user namespace on a permission error, since organization tokens commonly
// lack the org-creation scope while still being able to push to the user
// account.
func (e *Engine) ensureDestination(ctx context.Context, req SyncRequest, sourceURL string) (string, error) {
	owner := req.Namespace
	if owner == "" {
		owner = e.config.Destination.Username
	}

	if e.destination.RepositoryExists(ctx, owner, req.Name) {
		return owner, nil
	}

	createReq := gitea.CreateRepositoryRequest{
		Name:        req.Name,
		Description: "Mirror of " + sourceURL,
		Org:         req.Namespace,
	}

	_, err := e.destination.CreateRepository(ctx, createReq)
	if err == nil || errors.Is(err, gitea.ErrAlreadyExists) {
		return owner, nil
	}

	if req.Namespace != "" && Classify(err) == KindPermissionDenied {
		e.logger.Warn("organization creation denied, falling back to user namespace",
			zap.String("name", req.Name),
			zap.String("org", req.Namespace),
			zap.Error(err))

		owner = e.config.Destination.Username
		if e.destination.RepositoryExists(ctx, owner, req.Name) {
			return owner, nil
		}

		createReq.Org = ""
		if _, err = e.destination.CreateRepository(ctx, createReq); err == nil || errors.Is(err, gitea.ErrAlreadyExists) {
			return owner, nil
		}
	}

	return "", fmt.Errorf("failed to create destination repository %s/%s: %w", owner, req.Name, err)
}

// withRetry runs op up to the configured attempt count, waiting
// 5s × attempt between retryable failures. Non-retryable failures abort
// immediately.
func (e *Engine) withRetry(retryable func(error) bool, cleanup func(), op func() error) error {
	attempts := e.config.retryCount()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if !retryable(lastErr) || attempt == attempts {
			break
		}

		if cleanup != nil {
			cleanup()
		}

		wait := time.Duration(attempt) * retryBaseDelay
		e.logger.Warn("transient transport failure, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(lastErr))
		e.sleep(wait)
	}

	return lastErr
}

// push pushes all branches and tags in one operation, bounded by the
// configured wall clock. A size-limit rejection degrades to per-branch
// pushes; a timeout and all other failures abort.
func (e *Engine) push(ctx context.Context, localPath, owner, name string) (string, []string, error) {
	destURL, err := e.destinationURL(owner, name)
	if err != nil {
		return "", nil, err
	}

	timeout := e.config.pushTimeout()
	pushCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pushStart := time.Now()
	err = e.transport.PushAll(pushCtx, localPath, destURL)
	if err == nil {
		return "", nil, nil
	}

	if Classify(err) == KindTimeout || errors.Is(pushCtx.Err(), context.DeadlineExceeded) {
		return "", nil, fmt.Errorf("push timed out after %s (limit %s)",
			time.Since(pushStart).Round(time.Second), timeout)
	}

	if Classify(err) == KindPayloadTooLarge {
		e.logger.Warn("bulk push exceeded the size limit, pushing branches individually",
			zap.String("name", name),
			zap.Error(err))
		return e.pushBranches(pushCtx, localPath, destURL)
	}

	return "", nil, fmt.Errorf("push failed: %w", err)
}

// pushBranches is the degraded push path: one branch at a time, continuing
// past individual failures, tags last. Success means at least one branch
// landed.
func (e *Engine) pushBranches(ctx context.Context, localPath, destURL string) (string, []string, error) {
	branches, err := e.transport.Branches(localPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list branches for fallback push: %w", err)
	}

	var pushed int
	var failed []string
	for _, branch := range branches {
		if pushErr := e.transport.PushBranch(ctx, localPath, destURL, branch); pushErr != nil {
			e.logger.Warn("failed to push branch", zap.String("branch", branch), zap.Error(pushErr))
			failed = append(failed, branch)
			continue
		}
		pushed++
	}

	if pushed == 0 {
		return "", failed, fmt.Errorf("bulk push exceeded the size limit and no branch could be pushed individually")
	}

	if tagsErr := e.transport.PushTags(ctx, localPath, destURL); tagsErr != nil {
		e.logger.Warn("failed to push tags after branch fallback", zap.Error(tagsErr))
	}

	message := fmt.Sprintf("pushed %d of %d branches individually after a size-limited bulk push", pushed, len(branches))
	if len(failed) > 0 {
		message += "; failed branches: " + strings.Join(failed, ", ")
	}

	return message, failed, nil
}

// destinationURL builds the authenticated push URL for owner/name, with
// the credentials embedded.
func (e *Engine) destinationURL(owner, name string) (string, error) {
	base, err := url.Parse(e.config.Destination.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid destination base URL: %w", err)
	}

	base.User = url.UserPassword(e.config.Destination.Username, e.config.Destination.Token)
	base.Path = strings.TrimRight(base.Path, "/") + "/" + owner + "/" + name + giturl.Suffix

	return base.String(), nil
}

// record persists the attempt to history, writes the outcome back onto
// the repository record, and updates the metrics.
func (e *Engine) record(ctx context.Context, req SyncRequest, result Result, localPath string, started, finished time.Time) {
	if _, err := e.history.Append(ctx, history.AttemptDraft{
		Repository: req.Name,
		Operation:  result.Operation,
		Status:     result.Status,
		Error:      result.Error,
		StartedAt:  started,
		FinishedAt: finished,
	}); err != nil {
		e.logger.Error("failed to append sync history", zap.String("name", req.Name), zap.Error(err))
	}

	if req.RecordID != uuid.Nil {
		outcome := repos.SyncOutcome{
			Status: repos.SyncStatusFailed,
			Error:  result.Error,
			When:   finished,
		}
		if result.Status == history.StatusSuccess {
			outcome.Status = repos.SyncStatusSuccess
			outcome.LocalPath = localPath
			outcome.SizeBytes = directorySize(localPath)
		}

		if err := e.records.RecordSyncResult(ctx, req.RecordID, outcome); err != nil {
			e.logger.Error("failed to record sync outcome", zap.String("name", req.Name), zap.Error(err))
		}
	}

	e.metrics.observe(req.Name, result.Status == history.StatusSuccess, result.Duration)
}

// SyncAll mirrors a batch of repositories with bounded parallelism. A nil
// request list means every enabled record. One repository's failure never
// halts the batch; results keep the call order.
func (e *Engine) SyncAll(ctx context.Context, requests []SyncRequest) BatchResult {
	if requests == nil {
		records, err := e.records.ListEnabled(ctx)
		if err != nil {
			e.logger.Error("failed to load enabled records", zap.Error(err))
			return BatchResult{}
		}

		requests = lo.Map(records, func(record repos.Record, _ int) SyncRequest {
			return SyncRequest{
				RecordID:  record.ID,
				Name:      record.Name,
				SourceURL: record.SourceURL,
				Namespace: record.Namespace,
			}
		})
	}

	e.logger.Info("starting bulk sync", zap.Int("count", len(requests)))

	results := make([]Result, len(requests))

	var group errgroup.Group
	group.SetLimit(e.config.concurrency())

	for i, req := range requests {
		group.Go(func() error {
			results[i] = e.syncSafely(ctx, req)
			return nil
		})
	}
	_ = group.Wait()

	batch := BatchResult{
		Total:   len(results),
		Results: results,
	}
	for _, result := range results {
		if result.Status == history.StatusSuccess {
			batch.Success++
		} else {
			batch.Failed++
		}
	}

	e.logger.Info("bulk sync finished",
		zap.Int("total", batch.Total),
		zap.Int("success", batch.Success),
		zap.Int("failed", batch.Failed))

	return batch
}

// syncSafely converts a panic into a failed result so a single repository
// can never take the batch down.
func (e *Engine) syncSafely(ctx context.Context, req SyncRequest) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("sync panicked", zap.String("name", req.Name), zap.Any("panic", r))
			result = Result{
				Status:     history.StatusFailed,
				Repository: req.Name,
				Operation:  history.OperationSync,
				Error:      fmt.Sprintf("sync panicked: %v", r),
			}
		}
	}()

	return e.SyncRepository(ctx, req)
}

func (e *Engine) acquire(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, busy := e.inFlight[name]; busy {
		return false
	}

	e.inFlight[name] = struct{}{}
	return true
}

func (e *Engine) release(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.inFlight, name)
}

// directorySize sums the file sizes under root, skipping entries that
// cannot be read.
func directorySize(root string) int64 {
	var total int64

	_ = filepath.WalkDir(root, func(_ string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return nil
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			return nil
		}

		total += info.Size()
		return nil
	})

	return total
}
