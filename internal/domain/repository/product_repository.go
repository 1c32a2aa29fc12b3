package repository

import (
	"context"

	"github.com/jhoicas/costtrack-api/internal/domain/entity"
)

// ProductFilter filtros opcionales del listado; los campos vacíos no filtran.
type ProductFilter struct {
	Category string
	Brand    string
	Search   string // ILIKE sobre nombre y código
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID devuelve (nil, nil) si no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate bloquea la fila dentro de la transacción en curso.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// ExistsByCode busca el código excluyendo excludeID (vacío = toda la tabla).
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f ProductFilter) ([]*entity.Product, error)
	ListByCriticalLevel(ctx context.Context, limit int) ([]*entity.Product, error)
}
