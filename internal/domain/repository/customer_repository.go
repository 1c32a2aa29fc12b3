package repository

import (
	"context"

	"github.com/jhoicas/costtrack-api/internal/domain/entity"
)

// CustomerFilter filtros opcionales del listado de clientes.
type CustomerFilter struct {
	SalesRep string
	Country  string
	Region   string
	Search   string
}

// CustomerRepository define el puerto de persistencia para Customer (DIP).
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Customer, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Update(ctx context.Context, customer *entity.Customer) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f CustomerFilter) ([]*entity.Customer, error)
	// ListWithRiskLimit devuelve clientes con balance_risk_limit definido, del menor al mayor.
	ListWithRiskLimit(ctx context.Context) ([]*entity.Customer, error)
}
