package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/costtrack-api/internal/application/analytics"
)

// DashboardHandler maneja el endpoint de métricas del tablero.
type DashboardHandler struct {
	uc *appanalytics.DashboardUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// GetMetrics devuelve los totales del tablero.
// GET /api/dashboard/metrics
//
// Respuesta: DashboardMetricsDTO (total_products, total_customers, total_categories,
// total_cost_entries, recent_cost_updates[10] de los últimos 30 días, products_low_stock,
// customers_at_risk).
func (h *DashboardHandler) GetMetrics(c *fiber.Ctx) error {
	metrics, err := h.uc.GetMetrics(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, metrics, "")
}
