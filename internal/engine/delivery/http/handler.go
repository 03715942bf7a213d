package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"second-order-engine/internal/engine/repository"
	"second-order-engine/internal/engine/service"
	"second-order-engine/pkg/logger"
	"second-order-engine/pkg/utils"
)

// Handler exposes the operational HTTP surface: health, open positions,
// the audit trail and a manual cycle trigger.
type Handler struct {
	logger    *logger.Logger
	engine    *service.Engine
	auditRepo repository.PositionAuditRepository
}

// NewHandler creates a new Handler.
func NewHandler(log *logger.Logger, engine *service.Engine, auditRepo repository.PositionAuditRepository) *Handler {
	return &Handler{logger: log, engine: engine, auditRepo: auditRepo}
}

// RegisterRoutes registers all handler routes on the echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/positions", h.Positions)
	e.GET("/audits", h.Audits)
	e.POST("/cycle", h.TriggerCycle)
}

// Health is a liveness probe.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Positions returns a snapshot of the currently open positions.
func (h *Handler) Positions(c echo.Context) error {
	positions := h.engine.Lifecycle().OpenPositions()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":     len(positions),
		"positions": positions,
	})
}

// Audits returns the most recent closed-position audit entries.
func (h *Handler) Audits(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid limit"})
		}
		limit = parsed
	}

	audits, err := h.auditRepo.GetRecent(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to load position audits", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load audits"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":  len(audits),
		"audits": audits,
	})
}

// TriggerCycle kicks off a daily cycle in the background. A cycle already
// in flight makes this a no-op.
func (h *Handler) TriggerCycle(c echo.Context) error {
	// The request context dies with the response; the cycle outlives it.
	utils.GoSafe(func() {
		h.engine.RunDailyCycle(context.Background())
	})
	return c.JSON(http.StatusAccepted, map[string]string{"status": "cycle triggered"})
}
