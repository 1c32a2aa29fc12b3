package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/costtrack-api/internal/domain/entity"
	"github.com/jhoicas/costtrack-api/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultas de solo lectura para dashboard y reportes.
type AnalyticsRepo struct {
	q Querier
}

// NewAnalyticsRepository construye el adaptador de analítica.
func NewAnalyticsRepository(q Querier) *AnalyticsRepo {
	return &AnalyticsRepo{q: q}
}

func (r *AnalyticsRepo) count(ctx context.Context, op, query string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, wrapErr("analytics."+op, err)
	}
	return n, nil
}

// CountProducts total de productos.
func (r *AnalyticsRepo) CountProducts(ctx context.Context) (int, error) {
	return r.count(ctx, "CountProducts", `SELECT COUNT(*) FROM products`)
}

// CountCustomers total de clientes.
func (r *AnalyticsRepo) CountCustomers(ctx context.Context) (int, error) {
	return r.count(ctx, "CountCustomers", `SELECT COUNT(*) FROM customers`)
}

// CountCategories categorías distintas en uso.
func (r *AnalyticsRepo) CountCategories(ctx context.Context) (int, error) {
	return r.count(ctx, "CountCategories", `SELECT COUNT(DISTINCT product_category) FROM products`)
}

// CountCostEntries total de costos registrados.
func (r *AnalyticsRepo) CountCostEntries(ctx context.Context) (int, error) {
	return r.count(ctx, "CountCostEntries", `SELECT COUNT(*) FROM product_costs`)
}

// CountCustomersWithRiskLimit clientes con límite de riesgo definido.
func (r *AnalyticsRepo) CountCustomersWithRiskLimit(ctx context.Context) (int, error) {
	return r.count(ctx, "CountCustomersWithRiskLimit", `SELECT COUNT(*) FROM customers WHERE balance_risk_limit IS NOT NULL`)
}

// RecentCosts costos creados desde since, más recientes primero.
func (r *AnalyticsRepo) RecentCosts(ctx context.Context, since time.Time, limit int) ([]*entity.ProductCost, error) {
	query := `SELECT ` + costColumns + costFrom + ` WHERE pc.created_at >= $1 ORDER BY pc.created_at DESC LIMIT $2`
	rows, err := r.q.Query(ctx, query, since, limit)
	if err != nil {
		return nil, wrapErr("analytics.RecentCosts", err)
	}
	return collectCosts(rows)
}

// ProductCostSummaries productos con cantidad de costos y el último costo (mes más reciente).
// Los productos sin costos aparecen con conteo 0 y último costo NULL.
func (r *AnalyticsRepo) ProductCostSummaries(ctx context.Context, f repository.ProductFilter) ([]repository.ProductCostSummary, error) {
	w := productWhere(f)
	query := `
	SELECT ` + productColumns + `,
	    (SELECT COUNT(*) FROM product_costs c WHERE c.product_id = p.id) AS cost_entries,
	    latest.month,
	    latest.unit_cost` + productFrom + `
	LEFT JOIN LATERAL (
	    SELECT c.month, c.unit_cost
	    FROM product_costs c
	    WHERE c.product_id = p.id
	    ORDER BY c.month DESC, c.created_at DESC
	    LIMIT 1
	) latest ON TRUE` + w.sql() + `
	ORDER BY p.product_name ASC, p.created_at ASC`

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, wrapErr("analytics.ProductCostSummaries", err)
	}
	defer rows.Close()

	var out []repository.ProductCostSummary
	for rows.Next() {
		var (
			p   entity.Product
			row = repository.ProductCostSummary{Product: &p}
		)
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Code, &p.Category, &p.Unit, &p.CriticalStockLevel,
			&p.Brand, &p.CreatedBy, &p.CreatedByName, &p.CreatedAt, &p.UpdatedAt,
			&row.CostEntries, &row.LatestCostMonth, &row.LatestCost,
		); err != nil {
			return nil, fmt.Errorf("analytics.ProductCostSummaries scan: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("analytics.ProductCostSummaries", err)
	}
	return out, nil
}
