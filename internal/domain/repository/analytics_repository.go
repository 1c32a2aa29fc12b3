package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/costtrack-api/internal/domain/entity"
)

// ProductCostSummary resultado crudo del reporte de productos: producto más resumen de sus costos.
type ProductCostSummary struct {
	Product         *entity.Product
	CostEntries     int
	LatestCostMonth *time.Time
	LatestCost      *decimal.Decimal
}

// AnalyticsRepository define las consultas de lectura del dashboard y reportes.
// Las implementaciones son read-only (no modifican datos).
type AnalyticsRepository interface {
	CountProducts(ctx context.Context) (int, error)
	CountCustomers(ctx context.Context) (int, error)
	CountCategories(ctx context.Context) (int, error)
	CountCostEntries(ctx context.Context) (int, error)
	CountCustomersWithRiskLimit(ctx context.Context) (int, error)
	// RecentCosts devuelve los costos creados desde since, más recientes primero.
	RecentCosts(ctx context.Context, since time.Time, limit int) ([]*entity.ProductCost, error)
	// ProductCostSummaries agrupa costos por producto, ordenado por nombre.
	ProductCostSummaries(ctx context.Context, f ProductFilter) ([]ProductCostSummary, error)
}
