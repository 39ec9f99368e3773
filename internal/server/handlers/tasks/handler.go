package tasks

import (
	"errors"
	"fmt"

	"github.com/DeanWanghewei/mirror-git/internal/tasks"
	"github.com/go-core-fx/fiberfx/handler"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	tasksSvc *tasks.Service

	logger *zap.Logger
}

func NewHandler(tasksSvc *tasks.Service, logger *zap.Logger) handler.Handler {
	return &Handler{
		tasksSvc: tasksSvc,

		logger: logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r = r.Group("/tasks")

	r.Use(h.errorsHandler)
	r.Get("/", h.list)
	r.Get("/:id", h.get)
}

func (h *Handler) list(c *fiber.Ctx) error {
	return c.JSON(h.tasksSvc.List())
}

func (h *Handler) get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	task, err := h.tasksSvc.Get(id)
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}

	return c.JSON(task)
}

func (h *Handler) errorsHandler(c *fiber.Ctx) error {
	err := c.Next()
	if err == nil {
		return nil
	}

	if errors.Is(err, tasks.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	return err //nolint:wrapcheck //already wrapped
}
