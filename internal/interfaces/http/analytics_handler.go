package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/costtrack-api/internal/application/analytics"
	"github.com/jhoicas/costtrack-api/internal/application/dto"
)

// ReportHandler maneja los reportes de costos, productos y clientes.
// Todos devuelven metadata con total_entries y generated_at.
type ReportHandler struct {
	uc *appanalytics.ReportUseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *appanalytics.ReportUseCase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// Costs godoc
// @Summary      Reporte de costos por rango de meses
// @Description  Cada fila trae previous_cost, cost_change, percentage_change y trend
//               respecto al mes anterior del mismo producto dentro del rango.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        start_month  query  string  false  "Primer mes (YYYY-MM), inclusivo"
// @Param        end_month    query  string  false  "Último mes (YYYY-MM), inclusivo"
// @Success      200  {array}   dto.CostTrendResponse
// @Failure      400  {object}  dto.Envelope
// @Router       /api/reports/costs [get]
func (h *ReportHandler) Costs(c *fiber.Ctx) error {
	var q dto.CostReportQuery
	if err := c.QueryParser(&q); err != nil {
		return fail(c, fiber.StatusBadRequest, CodeValidation, "Invalid query parameters")
	}
	rows, meta, err := h.uc.CostReport(c.UserContext(), q)
	if err != nil {
		return respondError(c, err)
	}
	return respondReport(c, rows, meta)
}

// Products GET /api/reports/products (mismos filtros que /api/products).
func (h *ReportHandler) Products(c *fiber.Ctx) error {
	var q dto.ProductListQuery
	if err := c.QueryParser(&q); err != nil {
		return fail(c, fiber.StatusBadRequest, CodeValidation, "Invalid query parameters")
	}
	rows, meta, err := h.uc.ProductReport(c.UserContext(), q)
	if err != nil {
		return respondError(c, err)
	}
	return respondReport(c, rows, meta)
}

// Customers GET /api/reports/customers (mismos filtros que /api/customers).
func (h *ReportHandler) Customers(c *fiber.Ctx) error {
	var q dto.CustomerListQuery
	if err := c.QueryParser(&q); err != nil {
		return fail(c, fiber.StatusBadRequest, CodeValidation, "Invalid query parameters")
	}
	rows, meta, err := h.uc.CustomerReport(c.UserContext(), q)
	if err != nil {
		return respondError(c, err)
	}
	return respondReport(c, rows, meta)
}
