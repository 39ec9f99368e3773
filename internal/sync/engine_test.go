package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	gosync "sync"
	"testing"
	"time"

	"github.com/DeanWanghewei/mirror-git/internal/gitea"
	"github.com/DeanWanghewei/mirror-git/internal/history"
	"github.com/DeanWanghewei/mirror-git/internal/repos"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"
)

type fakeDestination struct {
	mu gosync.Mutex

	existing  map[string]bool
	createErr map[string]error // keyed by requested org; "" is the user namespace
	created   []gitea.CreateRepositoryRequest
}

func (d *fakeDestination) RepositoryExists(_ context.Context, owner, name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.existing[owner+"/"+name]
}

func (d *fakeDestination) CreateRepository(_ context.Context, req gitea.CreateRepositoryRequest) (*gitea.RepoInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.created = append(d.created, req)

	if err := d.createErr[req.Org]; err != nil {
		return nil, err
	}

	return &gitea.RepoInfo{Name: req.Name}, nil
}

type fakeRecords struct {
	mu gosync.Mutex

	enabled  []repos.Record
	syncing  []uuid.UUID
	outcomes map[uuid.UUID]repos.SyncOutcome
}

func (r *fakeRecords) ListEnabled(_ context.Context) ([]repos.Record, error) {
	return r.enabled, nil
}

func (r *fakeRecords) SetSyncing(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.syncing = append(r.syncing, id)
	return nil
}

func (r *fakeRecords) RecordSyncResult(_ context.Context, id uuid.UUID, outcome repos.SyncOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.outcomes == nil {
		r.outcomes = make(map[uuid.UUID]repos.SyncOutcome)
	}
	r.outcomes[id] = outcome
	return nil
}

type fakeHistory struct {
	mu gosync.Mutex

	attempts []history.AttemptDraft
}

func (h *fakeHistory) Append(_ context.Context, draft history.AttemptDraft) (*history.Attempt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.attempts = append(h.attempts, draft)
	return &history.Attempt{AttemptDraft: draft, ID: uuid.New()}, nil
}

type fakeTransport struct {
	mu gosync.Mutex

	hasWorkingCopy bool

	cloneErrs   []error          // consumed one per call; exhausted means success
	cloneErrFor map[string]error // keyed by source URL, wins over cloneErrs
	cloneCalls  int
	cloneURLs   []string

	updateErrs  []error
	updateCalls int

	pushAllErr     error
	branches       []string
	branchErrs     map[string]error
	pushedBranches []string
	tagsPushed     bool
}

func (f *fakeTransport) WorkingCopyExists(string) bool {
	return f.hasWorkingCopy
}

func (f *fakeTransport) Clone(_ context.Context, sourceURL, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cloneCalls++
	f.cloneURLs = append(f.cloneURLs, sourceURL)

	if err, ok := f.cloneErrFor[sourceURL]; ok {
		return err
	}

	if f.cloneCalls <= len(f.cloneErrs) {
		return f.cloneErrs[f.cloneCalls-1]
	}

	return nil
}

func (f *fakeTransport) Update(_ context.Context, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updateCalls++

	if f.updateCalls <= len(f.updateErrs) {
		return f.updateErrs[f.updateCalls-1]
	}

	return nil
}

func (f *fakeTransport) PushAll(_ context.Context, _, _ string) error {
	return f.pushAllErr
}

func (f *fakeTransport) PushBranch(_ context.Context, _, _, branch string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.branchErrs[branch]; err != nil {
		return err
	}

	f.pushedBranches = append(f.pushedBranches, branch)
	return nil
}

func (f *fakeTransport) PushTags(_ context.Context, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tagsPushed = true
	return nil
}

func (f *fakeTransport) Branches(string) ([]string, error) {
	return f.branches, nil
}

type engineFixture struct {
	engine      *Engine
	destination *fakeDestination
	records     *fakeRecords
	history     *fakeHistory
	transport   *fakeTransport
	waits       *[]time.Duration
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	destination := &fakeDestination{existing: map[string]bool{}}
	records := &fakeRecords{}
	historyStore := &fakeHistory{}
	transport := &fakeTransport{}

	config := Config{
		LocalPath:   t.TempDir(),
		RetryCount:  3,
		PushTimeout: time.Minute,
		Concurrency: 3,
		Destination: DestinationConfig{
			BaseURL:  "https://git.example.com",
			Username: "mirror",
			Token:    "secret",
		},
	}

	engine := NewEngine(config, destination, records, historyStore, transport,
		prometheus.NewRegistry(), zaptest.NewLogger(t))

	waits := &[]time.Duration{}
	engine.sleep = func(d time.Duration) { *waits = append(*waits, d) }

	return &engineFixture{
		engine:      engine,
		destination: destination,
		records:     records,
		history:     historyStore,
		transport:   transport,
		waits:       waits,
	}
}

func TestEngine_SyncRepository_EndToEnd(t *testing.T) {
	f := newEngineFixture(t)
	recordID := uuid.New()

	result := f.engine.SyncRepository(context.Background(), SyncRequest{
		RecordID:  recordID,
		Name:      "demo",
		SourceURL: "https://github.com/acme/demo",
	})

	if result.Status != history.StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", result.Status, result.Error)
	}
	if result.Repository != "demo" {
		t.Errorf("expected repository 'demo', got %q", result.Repository)
	}
	if result.Operation != history.OperationClone {
		t.Errorf("expected operation clone, got %s", result.Operation)
	}

	// The URL is normalized before it reaches the transport.
	if len(f.transport.cloneURLs) != 1 || f.transport.cloneURLs[0] != "https://github.com/acme/demo.git" {
		t.Errorf("unexpected clone URLs: %v", f.transport.cloneURLs)
	}

	// The destination repo was created under the default user with the
	// generated description.
	if len(f.destination.created) != 1 {
		t.Fatalf("expected 1 create call, got %d", len(f.destination.created))
	}
	created := f.destination.created[0]
	if created.Org != "" {
		t.Errorf("expected user-namespace creation, got org %q", created.Org)
	}
	if created.Description != "Mirror of https://github.com/acme/demo.git" {
		t.Errorf("unexpected description: %q", created.Description)
	}

	outcome, ok := f.records.outcomes[recordID]
	if !ok {
		t.Fatal("expected a sync outcome on the record")
	}
	if outcome.Status != repos.SyncStatusSuccess {
		t.Errorf("expected record status success, got %s", outcome.Status)
	}

	if len(f.history.attempts) != 1 {
		t.Fatalf("expected 1 history attempt, got %d", len(f.history.attempts))
	}
	if f.history.attempts[0].Operation != history.OperationClone {
		t.Errorf("expected clone attempt, got %s", f.history.attempts[0].Operation)
	}
}

func TestEngine_SyncRepository_ExistingDestinationSkipsCreate(t *testing.T) {
	f := newEngineFixture(t)
	f.destination.existing["mirror/demo"] = true

	result := f.engine.SyncRepository(context.Background(), SyncRequest{
		Name:      "demo",
		SourceURL: "https://github.com/acme/demo.git",
	})

	if result.Status != history.StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", result.Status, result.Error)
	}
	if len(f.destination.created) != 0 {
		t.Errorf("expected no create calls, got %d", len(f.destination.created))
	}
}

func TestEngine_SyncRepository_TransientCloneRetries(t *testing.T) {
	f := newEngineFixture(t)
	f.transport.cloneErrs = []error{
		errors.New("read tcp: connection reset by peer"),
		errors.New("fetch-pack: unexpected disconnect while reading sideband packet"),
	}

	result := f.engine.SyncRepository(context.Background(), SyncRequest{
		Name:      "demo",
		SourceURL: "https://github.com/acme/demo.git",
	})

	if result.Status != history.StatusSuccess {
		t.Fatalf("expected success after retries, got %s (%s)", result.Status, result.Error)
	}
	if f.transport.cloneCalls != 3 {
		t.Errorf("expected exactly 3 clone attempts, got %d", f.transport.cloneCalls)
	}

	want := []time.Duration{5 * time.Second, 10 * time.Second}
	if len(*f.waits) != len(want) {
		t.Fatalf("expected %d waits, got %v", len(want), *f.waits)
	}
	for i, wait := range want {
		if (*f.waits)[i] != wait {
			t.Errorf("wait %d: expected %s, got %s", i, wait, (*f.waits)[i])
		}
	}
}

func TestEngine_SyncRepository_NonTransientCloneFailsFast(t *testing.T) {
	f := newEngineFixture(t)
	f.transport.cloneErrs = []error{
		errors.New("repository not found"),
		errors.New("repository not found"),
		errors.New("repository not found"),
	}

	result := f.engine.SyncRepository(context.Background(), SyncRequest{
		Name:      "demo",
		SourceURL: "https://github.com/acme/demo.git",
	})

	if result.Status != history.StatusFailed {
		t.Fatal("expected failure")
	}
	if f.transport.cloneCalls != 1 {
		t.Errorf("expected exactly 1 clone attempt, got %d", f.transport.cloneCalls)
	}
	if len(*f.waits) != 0 {
		t.Errorf("expected no backoff waits, got %v", *f.waits)
	}
	if !strings.Contains(result.Error, "repository not found") {
		t.Errorf("expected the transport error in the result, got %q", result.Error)
	}
}

func TestEngine_SyncRepository_UpdatePath(t *testing.T) {
	f := newEngineFixture(t)
	f.transport.hasWorkingCopy = true
	f.transport.updateErrs = []error{
		errors.New("refusing to fetch into branch refs/heads/main"),
	}

	result := f.engine.SyncRepository(context.Background(), SyncRequest{
		Name:      "demo",
		SourceURL: "https://github.com/acme/demo.git",
	})

	if result.Status != history.StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", result.Status, result.Error)
	}
	if result.Operation != history.OperationUpdate {
		t.Errorf("expected operation update, got %s", result.Operation)
	}
	if f.transport.cloneCalls != 0 {
		t.Errorf("expected no clone calls, got %d", f.transport.cloneCalls)
	}

	// "refusing to fetch" is retryable during updates.
	if f.transport.updateCalls != 2 {
		t.Errorf("expected 2 update attempts, got %d", f.transport.updateCalls)
	}
}

func TestEngine_SyncRepository_OrgFallback(t *testing.T) {
	f := newEngineFixture(t)
	f.destination.createErr = map[string]error{
		"acme": fmt.Errorf("%w: missing admin:org scope", gitea.ErrPermissionDenied),
	}

	result := f.engine.SyncRepository(context.Background(), SyncRequest{
		Name:      "demo",
		SourceURL: "https://github.com/acme/demo.git",
		Namespace: "acme",
	})

	if result.Status != history.StatusSuccess {
		t.Fatalf("expected success via user-namespace fallback, got %s (%s)", result.Status, result.Error)
	}

	if len(f.destination.created) != 2 {
		t.Fatalf("expected 2 create calls, got %d", len(f.destination.created))
	}
	if f.destination.created[0].Org != "acme" {
		t.Errorf("first create should target the org, got %q", f.destination.created[0].Org)
	}
	if f.destination.created[1].Org != "" {
		t.Errorf("fallback create should target the user namespace, got %q", f.destination.created[1].Org)
	}
}

func TestEngine_SyncRepository_PushBranchFallback(t *testing.T) {
	f := newEngineFixture(t)
	f.transport.pushAllErr = errors.New("unexpected status: 413 Request Entity Too Large")
	f.transport.branches = []string{"main", "develop", "release"}
	f.transport.branchErrs = map[string]error{"develop": errors.New("remote hung up")}

	result := f.engine.SyncRepository(context.Background(), SyncRequest{
		Name:      "demo",
		SourceURL: "https://github.com/acme/demo.git",
	})

	if result.Status != history.StatusSuccess {
		t.Fatalf("expected success with 2 of 3 branches, got %s (%s)", result.Status, result.Error)
	}

	if len(f.transport.pushedBranches) != 2 {
		t.Errorf("expected 2 pushed branches, got %v", f.transport.pushedBranches)
	}
	if len(result.FailedBranches) != 1 || result.FailedBranches[0] != "develop" {
		t.Errorf("expected failed branch 'develop', got %v", result.FailedBranches)
	}
	if !strings.Contains(result.Message, "develop") {
		t.Errorf("expected the message to name the failed branch, got %q", result.Message)
	}
	if !f.transport.tagsPushed {
		t.Error("expected tags to be pushed after the branch fallback")
	}
}

func TestEngine_SyncRepository_PushTimeout(t *testing.T) {
	f := newEngineFixture(t)
	f.transport.pushAllErr = context.DeadlineExceeded

	result := f.engine.SyncRepository(context.Background(), SyncRequest{
		Name:      "demo",
		SourceURL: "https://github.com/acme/demo.git",
	})

	if result.Status != history.StatusFailed {
		t.Fatal("expected failure on push timeout")
	}
	if !strings.Contains(result.Error, "timed out") || !strings.Contains(result.Error, "1m0s") {
		t.Errorf("expected a timeout message with the configured bound, got %q", result.Error)
	}
}

func TestEngine_SyncAll_ContinuesPastFailures(t *testing.T) {
	f := newEngineFixture(t)
	f.transport.cloneErrFor = map[string]error{
		"https://github.com/acme/two.git": errors.New("repository not found"),
	}

	requests := []SyncRequest{
		{Name: "one", SourceURL: "https://github.com/acme/one.git"},
		{Name: "two", SourceURL: "https://github.com/acme/two.git"},
		{Name: "three", SourceURL: "https://github.com/acme/three.git"},
	}

	batch := f.engine.SyncAll(context.Background(), requests)

	if batch.Total != 3 || batch.Success != 2 || batch.Failed != 1 {
		t.Fatalf("expected {total:3 success:2 failed:1}, got {%d %d %d}",
			batch.Total, batch.Success, batch.Failed)
	}

	// Results keep the call order.
	if batch.Results[1].Repository != "two" || batch.Results[1].Status != history.StatusFailed {
		t.Errorf("expected a failure entry for 'two', got %+v", batch.Results[1])
	}
	if batch.Results[2].Repository != "three" || batch.Results[2].Status != history.StatusSuccess {
		t.Errorf("expected 'three' to sync despite the earlier failure, got %+v", batch.Results[2])
	}
}

func TestEngine_SyncAll_LoadsEnabledRecords(t *testing.T) {
	f := newEngineFixture(t)
	f.records.enabled = []repos.Record{
		{
			RecordUpdate: repos.RecordUpdate{
				RecordDraft: repos.RecordDraft{
					Name:      "demo",
					SourceURL: "https://github.com/acme/demo.git",
					Enabled:   true,
				},
			},
			ID: uuid.New(),
		},
	}

	batch := f.engine.SyncAll(context.Background(), nil)

	if batch.Total != 1 || batch.Success != 1 {
		t.Fatalf("expected the enabled record to sync, got %+v", batch)
	}
	if len(f.records.syncing) != 1 {
		t.Errorf("expected the record to be marked syncing, got %v", f.records.syncing)
	}
}
