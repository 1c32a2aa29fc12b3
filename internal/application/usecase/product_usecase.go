package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/costtrack-api/internal/application/dto"
	"github.com/jhoicas/costtrack-api/internal/application/validation"
	"github.com/jhoicas/costtrack-api/internal/domain"
	"github.com/jhoicas/costtrack-api/internal/domain/entity"
	"github.com/jhoicas/costtrack-api/internal/domain/repository"
)

// ProductCostsFKey restricción que impide borrar productos con costos asociados.
const ProductCostsFKey = "product_costs_product_id_fkey"

// LowStockLimit máximo de productos en el listado de nivel crítico.
const LowStockLimit = 50

// ProductUseCase casos de uso CRUD para productos; cada mutación corre en una sola transacción.
type ProductUseCase struct {
	repo repository.ProductRepository
	val  *validation.Validator
	exec executor
}

// NewProductUseCase construye el caso de uso. repo se usa para lecturas fuera de transacción.
func NewProductUseCase(repo repository.ProductRepository, tx TxRunner, val *validation.Validator, opts Options) *ProductUseCase {
	return &ProductUseCase{repo: repo, val: val, exec: newExecutor(tx, opts)}
}

// Create valida, verifica que el código no exista e inserta con id y timestamps nuevos.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.ProductRequest, actorID string) (res *dto.ProductResponse, err error) {
	defer func() { uc.exec.record("product", "create", err) }()
	if err := uc.val.Product(&in).Err(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	product := &entity.Product{
		ID:                 uuid.New().String(),
		Name:               in.ProductName,
		Code:               in.ProductCode,
		Category:           in.ProductCategory,
		Unit:               in.Unit,
		CriticalStockLevel: in.CriticalStockLevel.Value,
		Brand:              in.Brand,
		CreatedBy:          actorID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	err = uc.exec.inTx(ctx, func(ctx context.Context, repos TxRepos) error {
		exists, err := repos.Products.ExistsByCode(ctx, product.Code, "")
		if err != nil {
			return err
		}
		if exists {
			return &domain.DuplicateError{Field: "product_code"}
		}
		return repos.Products.Create(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

// GetByID devuelve domain.ErrProductNotFound si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	id = canonicalID(id)
	var product *entity.Product
	err := uc.exec.do(ctx, func(ctx context.Context) (err error) {
		product, err = uc.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	return ToProductResponse(product), nil
}

// Update reemplaza los campos editables. El código no puede colisionar con otro producto.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.ProductRequest) (res *dto.ProductResponse, err error) {
	id = canonicalID(id)
	defer func() { uc.exec.record("product", "update", err) }()
	if err := uc.val.Product(&in).Err(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	var updated *entity.Product
	err = uc.exec.inTx(ctx, func(ctx context.Context, repos TxRepos) error {
		product, err := repos.Products.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}
		exists, err := repos.Products.ExistsByCode(ctx, in.ProductCode, id)
		if err != nil {
			return err
		}
		if exists {
			return &domain.DuplicateError{Field: "product_code"}
		}
		product.Name = in.ProductName
		product.Code = in.ProductCode
		product.Category = in.ProductCategory
		product.Unit = in.Unit
		product.CriticalStockLevel = in.CriticalStockLevel.Value
		product.Brand = in.Brand
		product.UpdatedAt = now
		if err := repos.Products.Update(ctx, product); err != nil {
			return err
		}
		updated, err = repos.Products.GetByID(ctx, id)
		if err == nil && updated == nil {
			updated = product
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToProductResponse(updated), nil
}

// Delete borra el producto si no tiene costos asociados; en caso contrario devuelve *domain.DependentsError.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) (err error) {
	id = canonicalID(id)
	defer func() { uc.exec.record("product", "delete", err) }()
	return uc.exec.inTx(ctx, func(ctx context.Context, repos TxRepos) error {
		product, err := repos.Products.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}
		n, err := repos.Costs.CountByProduct(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &domain.DependentsError{Constraint: ProductCostsFKey, Count: n}
		}
		return repos.Products.Delete(ctx, id)
	})
}

// List lista productos con filtros opcionales, más recientes primero.
func (uc *ProductUseCase) List(ctx context.Context, q dto.ProductListQuery) ([]dto.ProductResponse, error) {
	var list []*entity.Product
	err := uc.exec.do(ctx, func(ctx context.Context) (err error) {
		list, err = uc.repo.List(ctx, repository.ProductFilter{Category: q.Category, Brand: q.Brand, Search: q.Search})
		return err
	})
	if err != nil {
		return nil, err
	}
	return productResponses(list), nil
}

// LowStock lista los productos con mayor nivel crítico configurado.
func (uc *ProductUseCase) LowStock(ctx context.Context) ([]dto.ProductResponse, error) {
	var list []*entity.Product
	err := uc.exec.do(ctx, func(ctx context.Context) (err error) {
		list, err = uc.repo.ListByCriticalLevel(ctx, LowStockLimit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return productResponses(list), nil
}
