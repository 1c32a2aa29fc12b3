package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductRequest entrada para crear o reemplazar un producto.
type ProductRequest struct {
	ProductName        string `json:"product_name" validate:"notblank"`
	ProductCode        string `json:"product_code" validate:"notblank"`
	ProductCategory    string `json:"product_category" validate:"notblank"`
	Unit               string `json:"unit" validate:"notblank"`
	CriticalStockLevel Number `json:"critical_stock_level" validate:"required,positive,storable"`
	Brand              string `json:"brand"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID                 string          `json:"id"`
	ProductName        string          `json:"product_name"`
	ProductCode        string          `json:"product_code"`
	ProductCategory    string          `json:"product_category"`
	Unit               string          `json:"unit"`
	CriticalStockLevel decimal.Decimal `json:"critical_stock_level"`
	Brand              string          `json:"brand,omitempty"`
	CreatedBy          string          `json:"created_by"`
	CreatedByName      string          `json:"created_by_name,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ProductListQuery filtros de GET /api/products.
type ProductListQuery struct {
	Category string `query:"category"`
	Brand    string `query:"brand"`
	Search   string `query:"search"`
}
