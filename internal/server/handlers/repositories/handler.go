package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/DeanWanghewei/mirror-git/internal/giturl"
	"github.com/DeanWanghewei/mirror-git/internal/history"
	"github.com/DeanWanghewei/mirror-git/internal/repos"
	"github.com/DeanWanghewei/mirror-git/internal/server/validation"
	"github.com/DeanWanghewei/mirror-git/internal/sync"
	"github.com/DeanWanghewei/mirror-git/internal/tasks"
	"github.com/go-core-fx/fiberfx/handler"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Handler struct {
	reposSvc   *repos.Service
	historySvc *history.Service
	tasksSvc   *tasks.Service
	engine     *sync.Engine

	validator *validator.Validate
	logger    *zap.Logger
}

func NewHandler(
	reposSvc *repos.Service,
	historySvc *history.Service,
	tasksSvc *tasks.Service,
	engine *sync.Engine,
	validator *validator.Validate,
	logger *zap.Logger,
) handler.Handler {
	return &Handler{
		reposSvc:   reposSvc,
		historySvc: historySvc,
		tasksSvc:   tasksSvc,
		engine:     engine,

		validator: validator,
		logger:    logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r = r.Group("/repositories")

	r.Use(h.errorsHandler)
	r.Post("/", validation.DecorateWithBodyEx(h.validator, h.post))
	r.Get("/", h.list)
	r.Get("/:id", h.get)
	r.Patch("/:id", validation.DecorateWithBodyEx(h.validator, h.patch))
	r.Delete("/:id", h.delete)
	r.Post("/:id/sync", h.sync)
	r.Get("/:id/history", h.history)
}

func (h *Handler) post(c *fiber.Ctx, req *POSTRequest) error {
	draft := repos.RecordDraft{
		Name:      req.Name,
		SourceURL: req.SourceURL,
		Namespace: req.Namespace,
		Enabled:   req.Enabled == nil || *req.Enabled,
	}

	record, err := h.reposSvc.Create(c.Context(), draft)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}

	return c.Status(fiber.StatusCreated).JSON(newRepositoryResponse(record))
}

func (h *Handler) list(c *fiber.Ctx) error {
	records, err := h.reposSvc.List(c.Context())
	if err != nil {
		return fmt.Errorf("failed to list repositories: %w", err)
	}

	responses := lo.Map(records, func(record repos.Record, _ int) RepositoryResponse {
		return newRepositoryResponse(&record)
	})

	return c.JSON(responses)
}

func (h *Handler) get(c *fiber.Ctx) error {
	id, err := getRecordID(c)
	if err != nil {
		return err
	}

	record, err := h.reposSvc.Get(c.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get repository: %w", err)
	}

	return c.JSON(newRepositoryResponse(record))
}

func (h *Handler) patch(c *fiber.Ctx, req *PATCHRequest) error {
	id, err := getRecordID(c)
	if err != nil {
		return err
	}

	updater := func(record *repos.Record) error {
		if req.Name != nil {
			record.Name = *req.Name
		}
		if req.Enabled != nil {
			record.Enabled = *req.Enabled
		}
		return nil
	}

	record, err := h.reposSvc.Update(c.Context(), id, updater)
	if err != nil {
		return fmt.Errorf("failed to update repository: %w", err)
	}

	return c.JSON(newRepositoryResponse(record))
}

func (h *Handler) delete(c *fiber.Ctx) error {
	id, err := getRecordID(c)
	if err != nil {
		return err
	}

	opts := repos.DeleteOptions{
		RemoveLocal:       c.QueryBool("local"),
		RemoveDestination: c.QueryBool("destination"),
		RemoveHistory:     c.QueryBool("history"),
	}

	if err := h.reposSvc.Delete(c.Context(), id, opts); err != nil {
		return fmt.Errorf("failed to delete repository: %w", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// sync submits a background sync task for one repository and returns the
// task handle for polling.
func (h *Handler) sync(c *fiber.Ctx) error {
	id, err := getRecordID(c)
	if err != nil {
		return err
	}

	record, err := h.reposSvc.Get(c.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get repository: %w", err)
	}

	req := sync.SyncRequest{
		RecordID:  record.ID,
		Name:      record.Name,
		SourceURL: record.SourceURL,
		Namespace: record.Namespace,
	}

	task, err := h.tasksSvc.Submit("sync:"+record.Name, func(ctx context.Context) (any, error) {
		result := h.engine.SyncRepository(ctx, req)
		if result.Status == history.StatusFailed {
			return result, errors.New(result.Error)
		}
		return result, nil
	})
	if err != nil {
		return fmt.Errorf("failed to submit sync task: %w", err)
	}

	return c.Status(fiber.StatusAccepted).JSON(task)
}

func (h *Handler) history(c *fiber.Ctx) error {
	id, err := getRecordID(c)
	if err != nil {
		return err
	}

	record, err := h.reposSvc.Get(c.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get repository: %w", err)
	}

	attempts, err := h.historySvc.ListByRepository(c.Context(), record.Name, c.QueryInt("limit"))
	if err != nil {
		return fmt.Errorf("failed to list sync history: %w", err)
	}

	responses := lo.Map(attempts, func(attempt history.Attempt, _ int) AttemptResponse {
		return newAttemptResponse(&attempt)
	})

	return c.JSON(responses)
}

func (h *Handler) errorsHandler(c *fiber.Ctx) error {
	err := c.Next()
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, repos.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, repos.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, repos.ErrNotAllowed), errors.Is(err, giturl.ErrInvalidURL):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, tasks.ErrStopped):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}

	return err //nolint:wrapcheck //already wrapped
}
