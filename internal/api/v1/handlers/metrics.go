package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/handyhub/quotehub/internal/api/v1/middleware"
	"github.com/handyhub/quotehub/internal/services"
	"github.com/handyhub/quotehub/internal/types"
)

// MetricsHandler handles HTTP requests for provider metrics
type MetricsHandler struct {
	service *services.Metrics
}

// NewMetricsHandler creates a new metrics handler instance
func NewMetricsHandler(service *services.Metrics) *MetricsHandler {
	return &MetricsHandler{service: service}
}

// GetMyMetrics returns the authenticated provider's aggregate metrics
func (h *MetricsHandler) GetMyMetrics(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrInvalidInput(ErrMsgAuthRequired))
	}

	metrics, err := h.service.GetByProvider(c.Context(), identity.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(types.Success(metrics))
}
