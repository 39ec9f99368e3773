package scheduler

import (
	"context"
	"time"

	"github.com/DeanWanghewei/mirror-git/internal/sync"
	"github.com/DeanWanghewei/mirror-git/internal/tasks"
	"go.uber.org/zap"
)

type Config struct {
	// Interval between scheduled sync-all runs. Zero or negative disables
	// the scheduler; on-demand syncs keep working.
	Interval time.Duration
}

// Scheduler submits a sync-all task on a fixed interval.
type Scheduler struct {
	config Config

	tasks  *tasks.Service
	engine *sync.Engine

	logger *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func New(config Config, tasksSvc *tasks.Service, engine *sync.Engine, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		config: config,

		tasks:  tasksSvc,
		engine: engine,

		logger: logger,
	}
}

// Start launches the ticker loop.
func (s *Scheduler) Start() {
	if s.config.Interval <= 0 {
		s.logger.Info("scheduler disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx)

	s.logger.Info("scheduler started", zap.Duration("interval", s.config.Interval))
}

// Stop halts the ticker loop. An in-flight sync-all task keeps running on
// the task pool until the pool itself shuts down.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}

	s.cancel()
	<-s.done

	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.trigger()
		}
	}
}

func (s *Scheduler) trigger() {
	task, err := s.tasks.Submit("sync:all", func(ctx context.Context) (any, error) {
		return s.engine.SyncAll(ctx, nil), nil
	})
	if err != nil {
		s.logger.Error("failed to submit scheduled sync", zap.Error(err))
		return
	}

	s.logger.Info("scheduled sync submitted", zap.String("task_id", task.ID.String()))
}
