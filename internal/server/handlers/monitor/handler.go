package monitor

import (
	"fmt"

	"github.com/DeanWanghewei/mirror-git/internal/history"
	"github.com/DeanWanghewei/mirror-git/internal/repos"
	"github.com/go-core-fx/fiberfx/handler"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const recentAttemptsLimit = 10

type Handler struct {
	reposSvc   *repos.Service
	historySvc *history.Service

	logger *zap.Logger
}

func NewHandler(reposSvc *repos.Service, historySvc *history.Service, logger *zap.Logger) handler.Handler {
	return &Handler{
		reposSvc:   reposSvc,
		historySvc: historySvc,

		logger: logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r = r.Group("/monitor")

	r.Get("/dashboard", h.dashboard)
}

func (h *Handler) dashboard(c *fiber.Ctx) error {
	records, err := h.reposSvc.List(c.Context())
	if err != nil {
		return fmt.Errorf("failed to list repositories: %w", err)
	}

	stats, err := h.historySvc.Stats(c.Context())
	if err != nil {
		return fmt.Errorf("failed to load sync stats: %w", err)
	}

	recent, err := h.historySvc.List(c.Context(), recentAttemptsLimit)
	if err != nil {
		return fmt.Errorf("failed to list recent attempts: %w", err)
	}

	response := DashboardResponse{
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
		TotalSizeBytes: lo.SumBy(records, func(record repos.Record) int64 {
			return record.SizeBytes
		}),
		RecentAttempts: lo.Map(recent, func(attempt history.Attempt, _ int) AttemptSummary {
			return newAttemptSummary(&attempt)
		}),
	}

	return c.JSON(response)
}
