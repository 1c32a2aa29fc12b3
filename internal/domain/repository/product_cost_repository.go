package repository

import (
	"context"
	"time"

	"github.com/jhoicas/costtrack-api/internal/domain/entity"
)

// ProductCostFilter filtros del listado de costos. From/To son inclusivos.
type ProductCostFilter struct {
	ProductID string
	Month     *time.Time
	From      *time.Time
	To        *time.Time
}

// ProductCostRepository define el puerto de persistencia para ProductCost (DIP).
type ProductCostRepository interface {
	Create(ctx context.Context, cost *entity.ProductCost) error
	GetByID(ctx context.Context, id string) (*entity.ProductCost, error)
	GetForUpdate(ctx context.Context, id string) (*entity.ProductCost, error)
	Update(ctx context.Context, cost *entity.ProductCost) error
	Delete(ctx context.Context, id string) error
	// List ordena por mes descendente y luego por nombre de producto.
	List(ctx context.Context, f ProductCostFilter) ([]*entity.ProductCost, error)
	CountByProduct(ctx context.Context, productID string) (int, error)
}
