package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/costtrack-api/internal/application/analytics"
	"github.com/jhoicas/costtrack-api/internal/application/dto"
	"github.com/jhoicas/costtrack-api/internal/application/usecase"
	"github.com/jhoicas/costtrack-api/internal/application/validation"
)

// ProductCostHandler maneja los costos mensuales y su historial.
type ProductCostHandler struct {
	uc      *usecase.ProductCostUseCase
	reports *analytics.ReportUseCase
}

// NewProductCostHandler construye el handler.
func NewProductCostHandler(uc *usecase.ProductCostUseCase, reports *analytics.ReportUseCase) *ProductCostHandler {
	return &ProductCostHandler{uc: uc, reports: reports}
}

// Create godoc
// @Summary      Registrar costo mensual
// @Description  month acepta YYYY-MM, YYYY-MM-DD o RFC 3339 y se guarda como primer día del mes.
// @Tags         product-costs
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ProductCostRequest  true  "product_id, month, unit_cost"
// @Success      201   {object}  dto.ProductCostResponse
// @Failure      400   {object}  dto.Envelope
// @Failure      404   {object}  dto.Envelope  "producto inexistente"
// @Router       /api/product-costs [post]
func (h *ProductCostHandler) Create(c *fiber.Ctx) error {
	var in dto.ProductCostRequest
	if r := validation.DecodeJSON(c.Body(), &in); !r.Valid {
		return respondError(c, r.Err())
	}
	out, err := h.uc.Create(c.UserContext(), in, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, out, "Product cost created successfully")
}

// GetByID GET /api/product-costs/:id
func (h *ProductCostHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, out, "")
}

// List GET /api/product-costs?product_id=&month=
func (h *ProductCostHandler) List(c *fiber.Ctx) error {
	var q dto.ProductCostListQuery
	if err := c.QueryParser(&q); err != nil {
		return fail(c, fiber.StatusBadRequest, CodeValidation, "Invalid query parameters")
	}
	out, err := h.uc.List(c.UserContext(), q)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, out, "")
}

// History godoc
// @Summary      Historial de costos de un producto
// @Description  Más reciente primero, con la variación respecto al mes anterior.
// @Tags         product-costs
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {array}  dto.CostTrendResponse
// @Router       /api/product-costs/history/{productId} [get]
func (h *ProductCostHandler) History(c *fiber.Ctx) error {
	out, err := h.reports.CostHistory(c.UserContext(), c.Params("productId"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, out, "")
}

// Update PUT /api/product-costs/:id
func (h *ProductCostHandler) Update(c *fiber.Ctx) error {
	var in dto.ProductCostRequest
	if r := validation.DecodeJSON(c.Body(), &in); !r.Valid {
		return respondError(c, r.Err())
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, out, "Product cost updated successfully")
}

// Delete DELETE /api/product-costs/:id
func (h *ProductCostHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, nil, "Product cost deleted successfully")
}
