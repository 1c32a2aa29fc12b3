package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/costtrack-api/internal/application/usecase"
	"github.com/jhoicas/costtrack-api/internal/domain"
)

var _ usecase.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Si el commit falla sin respuesta del servidor el resultado es incierto: domain.ErrCommitUnknown.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos usecase.TxRepos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	// El rollback debe ejecutarse aunque el contexto del request ya esté cancelado.
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	repos := usecase.TxRepos{
		Products:  NewProductRepository(tx),
		Customers: NewCustomerRepository(tx),
		Costs:     NewProductCostRepository(tx),
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return wrapErr("commit transaction", err)
	}
	if err := tx.Commit(ctx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return wrapErr("commit transaction", err)
		}
		return fmt.Errorf("commit transaction: %w: %v", domain.ErrCommitUnknown, err)
	}
	return nil
}
