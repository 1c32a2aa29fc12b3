package usecase

import (
	"context"

	"github.com/jhoicas/costtrack-api/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Products  repository.ProductRepository
	Customers repository.CustomerRepository
	Costs     repository.ProductCostRepository
}

// TxRunner ejecuta fn dentro de una transacción: Commit si fn devuelve nil, Rollback en cualquier otro caso
// (incluida la cancelación del contexto).
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error
}

// MutationRecorder recibe el resultado de cada mutación (métricas).
type MutationRecorder interface {
	RecordMutation(entity, op, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordMutation(string, string, string) {}
