package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/costtrack-api/internal/domain"
	"github.com/jhoicas/costtrack-api/internal/domain/entity"
	"github.com/jhoicas/costtrack-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `p.id, p.product_name, p.product_code, p.product_category, p.unit, p.critical_stock_level,
	p.brand, COALESCE(p.created_by::text, ''), COALESCE(u.name, ''), p.created_at, p.updated_at`

const productFrom = ` FROM products p LEFT JOIN users u ON u.id = p.created_by`

func scanProduct(row pgx.Row, p *entity.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Code, &p.Category, &p.Unit, &p.CriticalStockLevel,
		&p.Brand, &p.CreatedBy, &p.CreatedByName, &p.CreatedAt, &p.UpdatedAt)
}

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto. La restricción UNIQUE de product_code es la última defensa.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (id, product_name, product_code, product_category, unit, critical_stock_level, brand, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.Name, product.Code, product.Category, product.Unit,
		product.CriticalStockLevel, product.Brand, nullable(product.CreatedBy), product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateError{Field: "product_code"}
		}
		return wrapErr("insert product", err)
	}
	return nil
}

// GetByID obtiene un producto por ID; nil si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.get(ctx, "get product", `SELECT `+productColumns+productFrom+` WHERE p.id = $1`, id)
}

// GetForUpdate lee y bloquea la fila hasta el fin de la transacción.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.get(ctx, "lock product", `SELECT `+productColumns+productFrom+` WHERE p.id = $1 FOR UPDATE OF p`, id)
}

func (r *ProductRepo) get(ctx context.Context, op, query, id string) (*entity.Product, error) {
	if !validID(id) {
		return nil, nil
	}
	var p entity.Product
	if err := scanProduct(r.q.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr(op, err)
	}
	return &p, nil
}

// ExistsByCode indica si otro producto (distinto de excludeID) usa el código.
func (r *ProductRepo) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	var found bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE product_code = $1 AND id IS DISTINCT FROM $2::uuid)`,
		code, uuidArg(excludeID),
	).Scan(&found)
	if err != nil {
		return false, wrapErr("product code exists", err)
	}
	return found, nil
}

// Update reemplaza los campos editables; created_by y created_at no cambian.
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	if !validID(product.ID) {
		return domain.ErrProductNotFound
	}
	query := `
		UPDATE products SET product_name = $2, product_code = $3, product_category = $4, unit = $5,
			critical_stock_level = $6, brand = $7, updated_at = $8
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		product.ID, product.Name, product.Code, product.Category, product.Unit,
		product.CriticalStockLevel, product.Brand, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateError{Field: "product_code"}
		}
		return wrapErr("update product", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// Delete elimina un producto por ID. Con costos asociados falla por la FK (ON DELETE RESTRICT).
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrProductNotFound
	}
	cmd, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &domain.DependentsError{Constraint: constraintName(err)}
		}
		return wrapErr("delete product", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func productWhere(f repository.ProductFilter) *where {
	w := &where{}
	if f.Category != "" {
		w.add("p.product_category = ?", f.Category)
	}
	if f.Brand != "" {
		w.add("p.brand = ?", f.Brand)
	}
	if f.Search != "" {
		w.add("(p.product_name ILIKE ? OR p.product_code ILIKE ?)", likePattern(f.Search))
	}
	return w
}

// List lista productos con filtros opcionales, más recientes primero.
func (r *ProductRepo) List(ctx context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	w := productWhere(f)
	return r.list(ctx, "list products", `SELECT `+productColumns+productFrom+w.sql()+` ORDER BY p.created_at DESC, p.id`, w.args...)
}

// ListByCriticalLevel lista productos con mayor nivel crítico primero.
func (r *ProductRepo) ListByCriticalLevel(ctx context.Context, limit int) ([]*entity.Product, error) {
	return r.list(ctx, "list products by critical level",
		`SELECT `+productColumns+productFrom+` ORDER BY p.critical_stock_level DESC, p.created_at ASC LIMIT $1`, limit)
}

func (r *ProductRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, wrapErr("scan product", err)
		}
		list = append(list, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return list, nil
}
