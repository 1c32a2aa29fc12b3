package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductCostRequest entrada para crear o reemplazar un costo mensual.
// Month acepta YYYY-MM, YYYY-MM-DD o RFC 3339; la validación lo deja como YYYY-MM-01.
type ProductCostRequest struct {
	ProductID string `json:"product_id" validate:"notblank,uuid"`
	Month     string `json:"month" validate:"notblank,month"`
	UnitCost  Number `json:"unit_cost" validate:"required,positive,storable"`
}

// ProductCostResponse salida de un costo.
type ProductCostResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	Month       string          `json:"month"` // YYYY-MM-DD
	UnitCost    decimal.Decimal `json:"unit_cost"`
	ProductName string          `json:"product_name,omitempty"`
	ProductCode string          `json:"product_code,omitempty"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductCostListQuery filtros de GET /api/product-costs.
type ProductCostListQuery struct {
	ProductID string `query:"product_id"`
	Month     string `query:"month"`
}

// CostTrendResponse fila de historial o reporte de costos con la variación respecto al mes anterior.
type CostTrendResponse struct {
	ProductCostResponse
	ProductCategory  string           `json:"product_category,omitempty"`
	Brand            string           `json:"brand,omitempty"`
	PreviousCost     *decimal.Decimal `json:"previous_cost"`
	CostChange       *decimal.Decimal `json:"cost_change"`
	PercentageChange *decimal.Decimal `json:"percentage_change"`
	Trend            *string          `json:"trend"`
}
