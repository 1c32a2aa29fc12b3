package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/costtrack-api/internal/domain"
	"github.com/jhoicas/costtrack-api/internal/domain/entity"
	"github.com/jhoicas/costtrack-api/internal/domain/repository"
)

var _ repository.ProductCostRepository = (*ProductCostRepo)(nil)

const costColumns = `pc.id, pc.product_id, pc.month, pc.unit_cost, COALESCE(pc.created_by::text, ''),
	COALESCE(p.product_name, ''), COALESCE(p.product_code, ''), pc.created_at, pc.updated_at`

const costFrom = ` FROM product_costs pc LEFT JOIN products p ON p.id = pc.product_id`

func scanCost(row pgx.Row, c *entity.ProductCost) error {
	return row.Scan(&c.ID, &c.ProductID, &c.Month, &c.UnitCost, &c.CreatedBy,
		&c.ProductName, &c.ProductCode, &c.CreatedAt, &c.UpdatedAt)
}

// ProductCostRepo costos mensuales por producto (usable con pool o tx).
type ProductCostRepo struct {
	q Querier
}

// NewProductCostRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductCostRepository(q Querier) *ProductCostRepo {
	return &ProductCostRepo{q: q}
}

// Create persiste un costo. Un product_id inexistente viola la FK y se devuelve domain.ErrProductNotFound.
func (r *ProductCostRepo) Create(ctx context.Context, cost *entity.ProductCost) error {
	if !validID(cost.ProductID) {
		return domain.ErrProductNotFound
	}
	query := `
		INSERT INTO product_costs (id, product_id, month, unit_cost, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		cost.ID, cost.ProductID, entity.MonthStart(cost.Month), cost.UnitCost, nullable(cost.CreatedBy), cost.CreatedAt, cost.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrProductNotFound
		}
		return wrapErr("insert product cost", err)
	}
	return nil
}

// GetByID obtiene un costo por ID; nil si no existe.
func (r *ProductCostRepo) GetByID(ctx context.Context, id string) (*entity.ProductCost, error) {
	return r.get(ctx, "get product cost", `SELECT `+costColumns+costFrom+` WHERE pc.id = $1`, id)
}

// GetForUpdate lee y bloquea la fila.
func (r *ProductCostRepo) GetForUpdate(ctx context.Context, id string) (*entity.ProductCost, error) {
	return r.get(ctx, "lock product cost", `SELECT `+costColumns+costFrom+` WHERE pc.id = $1 FOR UPDATE OF pc`, id)
}

func (r *ProductCostRepo) get(ctx context.Context, op, query, id string) (*entity.ProductCost, error) {
	if !validID(id) {
		return nil, nil
	}
	var c entity.ProductCost
	if err := scanCost(r.q.QueryRow(ctx, query, id), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr(op, err)
	}
	return &c, nil
}

// Update reemplaza producto, mes y costo unitario.
func (r *ProductCostRepo) Update(ctx context.Context, cost *entity.ProductCost) error {
	if !validID(cost.ID) {
		return domain.ErrNotFound
	}
	if !validID(cost.ProductID) {
		return domain.ErrProductNotFound
	}
	cmd, err := r.q.Exec(ctx,
		`UPDATE product_costs SET product_id = $2, month = $3, unit_cost = $4, updated_at = $5 WHERE id = $1`,
		cost.ID, cost.ProductID, entity.MonthStart(cost.Month), cost.UnitCost, cost.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrProductNotFound
		}
		return wrapErr("update product cost", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina un costo.
func (r *ProductCostRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	cmd, err := r.q.Exec(ctx, `DELETE FROM product_costs WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete product cost", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista costos: mes más reciente primero y luego por nombre de producto.
func (r *ProductCostRepo) List(ctx context.Context, f repository.ProductCostFilter) ([]*entity.ProductCost, error) {
	w := &where{}
	if f.ProductID != "" {
		if !validID(f.ProductID) {
			return nil, nil
		}
		w.add("pc.product_id = ?", f.ProductID)
	}
	if f.Month != nil {
		w.add("pc.month = ?", *f.Month)
	}
	if f.From != nil {
		w.add("pc.month >= ?", *f.From)
	}
	if f.To != nil {
		w.add("pc.month <= ?", *f.To)
	}
	query := `SELECT ` + costColumns + costFrom + w.sql() + ` ORDER BY pc.month DESC, p.product_name ASC, pc.created_at DESC`
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, wrapErr("list product costs", err)
	}
	return collectCosts(rows)
}

// CountByProduct cuenta los costos que referencian al producto.
func (r *ProductCostRepo) CountByProduct(ctx context.Context, productID string) (int, error) {
	if !validID(productID) {
		return 0, nil
	}
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM product_costs WHERE product_id = $1`, productID).Scan(&n); err != nil {
		return 0, wrapErr("count product costs", err)
	}
	return n, nil
}

func collectCosts(rows pgx.Rows) ([]*entity.ProductCost, error) {
	defer rows.Close()
	var list []*entity.ProductCost
	for rows.Next() {
		var c entity.ProductCost
		if err := scanCost(rows, &c); err != nil {
			return nil, wrapErr("scan product cost", err)
		}
		list = append(list, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("read product costs", err)
	}
	return list, nil
}
