package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/costtrack-api/internal/domain"
	"github.com/jhoicas/costtrack-api/internal/domain/entity"
	"github.com/jhoicas/costtrack-api/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

const customerColumns = `c.id, c.customer_name, c.customer_code, c.address, c.city_or_district, c.sales_rep,
	c.country, c.region_or_state, c.telephone_number, c.email, c.contact_person,
	c.payment_terms_limit, c.balance_risk_limit, COALESCE(c.created_by::text, ''), COALESCE(u.name, ''),
	c.created_at, c.updated_at`

const customerFrom = ` FROM customers c LEFT JOIN users u ON u.id = c.created_by`

func scanCustomer(row pgx.Row, c *entity.Customer) error {
	return row.Scan(&c.ID, &c.Name, &c.Code, &c.Address, &c.CityOrDistrict, &c.SalesRep,
		&c.Country, &c.RegionOrState, &c.TelephoneNumber, &c.Email, &c.ContactPerson,
		&c.PaymentTermsLimit, &c.BalanceRiskLimit, &c.CreatedBy, &c.CreatedByName,
		&c.CreatedAt, &c.UpdatedAt)
}

// CustomerRepo implementación de CustomerRepository (usable con pool o tx).
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

// Create persiste un nuevo cliente.
func (r *CustomerRepo) Create(ctx context.Context, customer *entity.Customer) error {
	query := `
		INSERT INTO customers (id, customer_name, customer_code, address, city_or_district, sales_rep, country,
			region_or_state, telephone_number, email, contact_person, payment_terms_limit, balance_risk_limit,
			created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		customer.ID, customer.Name, customer.Code, customer.Address, customer.CityOrDistrict, customer.SalesRep,
		customer.Country, customer.RegionOrState, customer.TelephoneNumber, customer.Email, customer.ContactPerson,
		customer.PaymentTermsLimit, customer.BalanceRiskLimit, nullable(customer.CreatedBy),
		customer.CreatedAt, customer.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateError{Field: "customer_code"}
		}
		return wrapErr("insert customer", err)
	}
	return nil
}

// GetByID obtiene un cliente por ID; nil si no existe.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	return r.get(ctx, "get customer", `SELECT `+customerColumns+customerFrom+` WHERE c.id = $1`, id)
}

// GetForUpdate lee y bloquea la fila.
func (r *CustomerRepo) GetForUpdate(ctx context.Context, id string) (*entity.Customer, error) {
	return r.get(ctx, "lock customer", `SELECT `+customerColumns+customerFrom+` WHERE c.id = $1 FOR UPDATE OF c`, id)
}

func (r *CustomerRepo) get(ctx context.Context, op, query, id string) (*entity.Customer, error) {
	if !validID(id) {
		return nil, nil
	}
	var c entity.Customer
	if err := scanCustomer(r.q.QueryRow(ctx, query, id), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr(op, err)
	}
	return &c, nil
}

// ExistsByCode indica si otro cliente (distinto de excludeID) usa el código.
func (r *CustomerRepo) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	var found bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM customers WHERE customer_code = $1 AND id IS DISTINCT FROM $2::uuid)`,
		code, uuidArg(excludeID),
	).Scan(&found)
	if err != nil {
		return false, wrapErr("customer code exists", err)
	}
	return found, nil
}

// Update reemplaza los datos del cliente.
func (r *CustomerRepo) Update(ctx context.Context, customer *entity.Customer) error {
	if !validID(customer.ID) {
		return domain.ErrNotFound
	}
	query := `
		UPDATE customers SET customer_name = $2, customer_code = $3, address = $4, city_or_district = $5,
			sales_rep = $6, country = $7, region_or_state = $8, telephone_number = $9, email = $10,
			contact_person = $11, payment_terms_limit = $12, balance_risk_limit = $13, updated_at = $14
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		customer.ID, customer.Name, customer.Code, customer.Address, customer.CityOrDistrict,
		customer.SalesRep, customer.Country, customer.RegionOrState, customer.TelephoneNumber, customer.Email,
		customer.ContactPerson, customer.PaymentTermsLimit, customer.BalanceRiskLimit, customer.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateError{Field: "customer_code"}
		}
		return wrapErr("update customer", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina un cliente; no tiene dependencias.
func (r *CustomerRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	cmd, err := r.q.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete customer", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista clientes con filtros opcionales, más recientes primero.
func (r *CustomerRepo) List(ctx context.Context, f repository.CustomerFilter) ([]*entity.Customer, error) {
	w := &where{}
	if f.SalesRep != "" {
		w.add("c.sales_rep = ?", f.SalesRep)
	}
	if f.Country != "" {
		w.add("c.country = ?", f.Country)
	}
	if f.Region != "" {
		w.add("c.region_or_state = ?", f.Region)
	}
	if f.Search != "" {
		w.add("(c.customer_name ILIKE ? OR c.customer_code ILIKE ?)", likePattern(f.Search))
	}
	return r.list(ctx, "list customers", `SELECT `+customerColumns+customerFrom+w.sql()+` ORDER BY c.created_at DESC, c.id`, w.args...)
}

// ListWithRiskLimit lista clientes con límite de riesgo, del menor al mayor.
func (r *CustomerRepo) ListWithRiskLimit(ctx context.Context) ([]*entity.Customer, error) {
	return r.list(ctx, "list customers at risk",
		`SELECT `+customerColumns+customerFrom+` WHERE c.balance_risk_limit IS NOT NULL ORDER BY c.balance_risk_limit ASC, c.created_at ASC`)
}

func (r *CustomerRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Customer, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()
	var list []*entity.Customer
	for rows.Next() {
		var c entity.Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, wrapErr("scan customer", err)
		}
		list = append(list, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return list, nil
}
