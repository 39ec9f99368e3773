package source

import (
	"errors"
	"fmt"

	"github.com/DeanWanghewei/mirror-git/internal/github"
	"github.com/DeanWanghewei/mirror-git/internal/repos"
	"github.com/DeanWanghewei/mirror-git/internal/server/validation"
	"github.com/go-core-fx/fiberfx/handler"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Handler struct {
	githubClient *github.Client
	reposSvc     *repos.Service

	validator *validator.Validate
	logger    *zap.Logger
}

func NewHandler(
	githubClient *github.Client,
	reposSvc *repos.Service,
	validator *validator.Validate,
	logger *zap.Logger,
) handler.Handler {
	return &Handler{
		githubClient: githubClient,
		reposSvc:     reposSvc,

		validator: validator,
		logger:    logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r = r.Group("/source")

	r.Use(h.errorsHandler)
	r.Get("/user", h.user)
	r.Get("/repositories", h.repositories)
	r.Get("/repositories/search", h.search)
	r.Post("/import", validation.DecorateWithBodyEx(h.validator, h.importAll))
}

func (h *Handler) user(c *fiber.Ctx) error {
	user, err := h.githubClient.CurrentUser(c.Context())
	if err != nil {
		return fmt.Errorf("failed to get source user: %w", err)
	}

	return c.JSON(user)
}

func (h *Handler) repositories(c *fiber.Ctx) error {
	all, err := h.githubClient.AllRepositoriesForUser(c.Context())
	if err != nil {
		return fmt.Errorf("failed to list source repositories: %w", err)
	}

	responses := lo.Map(all, func(repo github.Repository, _ int) RepositoryResponse {
		return newRepositoryResponse(&repo)
	})

	return c.JSON(responses)
}

func (h *Handler) search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return fiber.NewError(fiber.StatusBadRequest, "query parameter 'q' is required")
	}

	found, err := h.githubClient.SearchRepositories(c.Context(), query)
	if err != nil {
		return fmt.Errorf("failed to search source repositories: %w", err)
	}

	responses := lo.Map(found, func(repo github.Repository, _ int) RepositoryResponse {
		return newRepositoryResponse(&repo)
	})

	return c.JSON(responses)
}

// importAll registers every repository of the authenticated source user as a
// mirror record. Repositories that are already registered are skipped.
func (h *Handler) importAll(c *fiber.Ctx, req *ImportRequest) error {
	all, err := h.githubClient.AllRepositoriesForUser(c.Context())
	if err != nil {
		return fmt.Errorf("failed to list source repositories: %w", err)
	}

	response := ImportResponse{Total: len(all)}
	for _, repo := range all {
		if (req.SkipForks && repo.Fork) || (req.SkipArchived && repo.Archived) {
			response.Skipped++
			continue
		}

		draft := repos.RecordDraft{
			Name:      repo.Name,
			SourceURL: repo.CloneURL,
			Namespace: req.Namespace,
			Enabled:   true,
		}

		if _, err := h.reposSvc.Create(c.Context(), draft); err != nil {
			if errors.Is(err, repos.ErrConflict) {
				response.Skipped++
				continue
			}

			h.logger.Warn("failed to import repository",
				zap.String("repository", repo.FullName),
				zap.Error(err))
			response.Errors = append(response.Errors, fmt.Sprintf("%s: %s", repo.FullName, err))
			continue
		}

		response.Imported++
	}

	return c.JSON(response)
}

func (h *Handler) errorsHandler(c *fiber.Ctx) error {
	err := c.Next()
	if err == nil {
		return nil
	}

	if errors.Is(err, github.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	return err //nolint:wrapcheck //already wrapped
}
