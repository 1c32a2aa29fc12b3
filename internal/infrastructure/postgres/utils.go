package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/costtrack-api/internal/domain"
)

// Querier es lo común entre *pgxpool.Pool y pgx.Tx; los repositorios funcionan con ambos.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNumericOutOfRange   = "22003"
	codeSerialization       = "40001"
	codeDeadlock            = "40P01"
	codeAdminShutdown       = "57P01"
	codeTooManyConnections  = "53300"
)

func pgCode(err error) (string, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	code, _ := pgCode(err)
	return code == codeUniqueViolation
}

// isForeignKeyViolation verifica si un error es una violación de FK (23503).
func isForeignKeyViolation(err error) bool {
	code, _ := pgCode(err)
	return code == codeForeignKeyViolation
}

func constraintName(err error) string {
	_, name := pgCode(err)
	return name
}

// isTransient: timeouts, conexión caída, conflictos de serialización y errores que pgx marca como seguros de reintentar.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	code, _ := pgCode(err)
	switch {
	case strings.HasPrefix(code, "08"):
		return true
	case code == codeSerialization, code == codeDeadlock, code == codeAdminShutdown, code == codeTooManyConnections:
		return true
	}
	return false
}

// checkFields traduce los CHECK del esquema al campo JSON que los origina.
var checkFields = map[string]string{
	"products_critical_stock_level_check": "critical_stock_level",
	"customers_payment_terms_limit_check": "payment_terms_limit",
	"customers_balance_risk_limit_check":  "balance_risk_limit",
	"product_costs_unit_cost_check":       "unit_cost",
	"product_costs_month_check":           "month",
}

// rejectedValue convierte un CHECK violado o un NUMERIC desbordado en *domain.ValidationError.
func rejectedValue(err error) (*domain.ValidationError, bool) {
	code, constraint := pgCode(err)
	switch code {
	case codeCheckViolation:
		field, ok := checkFields[constraint]
		if !ok {
			field = "body"
		}
		return &domain.ValidationError{Fields: map[string]string{field: "Value is out of the allowed range"}}, true
	case codeNumericOutOfRange:
		return &domain.ValidationError{Fields: map[string]string{"body": "Numeric value is out of range"}}, true
	}
	return nil, false
}

// wrapErr añade contexto y marca con domain.ErrTransient lo que se puede reintentar.
// Los valores que el esquema rechaza se devuelven como *domain.ValidationError.
func wrapErr(op string, err error) error {
	if verr, ok := rejectedValue(err); ok {
		return fmt.Errorf("%s: %w", op, verr)
	}
	if isTransient(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// validID evita enviar a PostgreSQL ids que no son UUID (22P02); se tratan como inexistentes.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// uuidArg compara por valor UUID y no por texto: NULL si id no es un UUID, así no excluye ninguna fila.
func uuidArg(id string) any {
	u, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	return u.String()
}

// likePattern escapa comodines para búsquedas ILIKE por contenido.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// where arma cláusulas WHERE con placeholders numerados; cada "?" de cond se reemplaza por el mismo $n.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
