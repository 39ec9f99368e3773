package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/DeanWanghewei/mirror-git/internal/history"
	"github.com/DeanWanghewei/mirror-git/internal/repos"
	"github.com/DeanWanghewei/mirror-git/internal/sync"
	"github.com/DeanWanghewei/mirror-git/internal/tasks"
	"github.com/go-core-fx/fiberfx/handler"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Handler struct {
	reposSvc   *repos.Service
	historySvc *history.Service
	tasksSvc   *tasks.Service
	engine     *sync.Engine

	logger *zap.Logger
}

func NewHandler(
	reposSvc *repos.Service,
	historySvc *history.Service,
	tasksSvc *tasks.Service,
	engine *sync.Engine,
	logger *zap.Logger,
) handler.Handler {
	return &Handler{
		reposSvc:   reposSvc,
		historySvc: historySvc,
		tasksSvc:   tasksSvc,
		engine:     engine,

		logger: logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r = r.Group("/sync")

	r.Use(h.errorsHandler)
	r.Post("/all", h.all)
	r.Get("/history", h.history)
	r.Get("/status", h.status)
}

// all submits a bulk sync of every enabled repository and returns the
// task handle for polling.
func (h *Handler) all(c *fiber.Ctx) error {
	task, err := h.tasksSvc.Submit("sync:all", func(ctx context.Context) (any, error) {
		return h.engine.SyncAll(ctx, nil), nil
	})
	if err != nil {
		return fmt.Errorf("failed to submit bulk sync task: %w", err)
	}

	return c.Status(fiber.StatusAccepted).JSON(task)
}

func (h *Handler) history(c *fiber.Ctx) error {
	repository := c.Query("repository")
	limit := c.QueryInt("limit")

	var attempts []history.Attempt
	var err error
	if repository != "" {
		attempts, err = h.historySvc.ListByRepository(c.Context(), repository, limit)
	} else {
		attempts, err = h.historySvc.List(c.Context(), limit)
	}
	if err != nil {
		return fmt.Errorf("failed to list sync history: %w", err)
	}

	responses := lo.Map(attempts, func(attempt history.Attempt, _ int) AttemptResponse {
		return newAttemptResponse(&attempt)
	})

	return c.JSON(responses)
}

func (h *Handler) status(c *fiber.Ctx) error {
	records, err := h.reposSvc.List(c.Context())
	if err != nil {
		return fmt.Errorf("failed to list repositories: %w", err)
	}

	stats, err := h.historySvc.Stats(c.Context())
	if err != nil {
		return fmt.Errorf("failed to load sync stats: %w", err)
	}

	response := StatusResponse{
		Repositories: RepositoryCounts{
			Total: len(records),
			Enabled: lo.CountBy(records, func(record repos.Record) bool {
				return record.Enabled
			}),
			Failed: lo.CountBy(records, func(record repos.Record) bool {
				return record.LastSyncStatus == repos.SyncStatusFailed
			}),
		},
		Attempts: stats,
	}

	return c.JSON(response)
}

func (h *Handler) errorsHandler(c *fiber.Ctx) error {
	err := c.Next()
	if err == nil {
		return nil
	}

	if errors.Is(err, tasks.ErrStopped) {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}

	return err //nolint:wrapcheck //already wrapped
}
