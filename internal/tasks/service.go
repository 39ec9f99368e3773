package tasks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type queued struct {
	id  uuid.UUID
	job Job
}

// Service runs submitted jobs on a bounded worker pool and keeps their
// state queryable. Submitting returns immediately with a task handle;
// callers poll for completion.
type Service struct {
	config Config
	logger *zap.Logger

	mu    sync.Mutex
	tasks map[uuid.UUID]*Task

	queue   chan queued
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewService(config Config, logger *zap.Logger) *Service {
	return &Service{
		config: config,
		logger: logger,

		tasks: make(map[uuid.UUID]*Task),
		queue: make(chan queued, 64),
	}
}

// Start launches the worker pool.
func (s *Service) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	workers := s.config.workers()
	for range workers {
		s.wg.Add(1)
		go s.worker(ctx)
	}

	s.logger.Info("task runner started", zap.Int("workers", workers))
}

// Stop drains the pool. Queued tasks that never ran stay pending.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("task runner stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("task runner shutdown interrupted: %w", ctx.Err())
	}
}

// Submit enqueues a job and returns its task handle.
func (s *Service) Submit(name string, job Job) (*Task, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, ErrStopped
	}

	task := &Task{
		ID:        uuid.New(),
		Name:      name,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	s.tasks[task.ID] = task
	s.prune()
	snapshot := *task
	s.mu.Unlock()

	select {
	case s.queue <- queued{id: task.ID, job: job}:
	default:
		// Queue full; run the dispatch blocking in the background so
		// Submit stays non-blocking for the caller.
		go func() { s.queue <- queued{id: task.ID, job: job} }()
	}

	s.logger.Info("task submitted", zap.String("id", task.ID.String()), zap.String("name", name))

	return &snapshot, nil
}

// Get returns a snapshot of one task.
func (s *Service) Get(id uuid.UUID) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, id.String())
	}

	snapshot := *task
	return &snapshot, nil
}

// List returns snapshots of all retained tasks, newest first.
func (s *Service) List() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		list = append(list, *task)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	return list
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case item := <-s.queue:
			s.run(ctx, item)
		}
	}
}

func (s *Service) run(ctx context.Context, item queued) {
	s.setRunning(item.id)

	result, err := item.job(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[item.id]
	if !ok {
		return
	}

	now := time.Now()
	task.FinishedAt = &now
	task.Result = result

	if err != nil {
		task.Status = StatusFailed
		task.Error = err.Error()
		s.logger.Error("task failed", zap.String("id", item.id.String()), zap.String("name", task.Name), zap.Error(err))
		return
	}

	task.Status = StatusSuccess
	s.logger.Info("task finished", zap.String("id", item.id.String()), zap.String("name", task.Name))
}

func (s *Service) setRunning(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task, ok := s.tasks[id]; ok {
		now := time.Now()
		task.Status = StatusRunning
		task.StartedAt = &now
	}
}

// prune drops the oldest finished tasks beyond the retention cap. Callers
// must hold the lock.
func (s *Service) prune() {
	if len(s.tasks) <= maxRetained {
		return
	}

	finished := make([]*Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if task.Status == StatusSuccess || task.Status == StatusFailed {
			finished = append(finished, task)
		}
	}

	sort.Slice(finished, func(i, j int) bool {
		return finished[i].CreatedAt.Before(finished[j].CreatedAt)
	})

	for _, task := range finished {
		if len(s.tasks) <= maxRetained {
			break
		}
		delete(s.tasks, task.ID)
	}
}
