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

// ProductCostUseCase casos de uso de costos mensuales por producto.
type ProductCostUseCase struct {
	repo repository.ProductCostRepository
	val  *validation.Validator
	exec executor
}

// NewProductCostUseCase construye el caso de uso.
func NewProductCostUseCase(repo repository.ProductCostRepository, tx TxRunner, val *validation.Validator, opts Options) *ProductCostUseCase {
	return &ProductCostUseCase{repo: repo, val: val, exec: newExecutor(tx, opts)}
}

func (uc *ProductCostUseCase) validate(in *dto.ProductCostRequest) (time.Time, error) {
	if err := uc.val.ProductCost(in).Err(); err != nil {
		return time.Time{}, err
	}
	return validation.ParseMonth(in.Month)
}

// Create registra un costo. El producto referenciado debe existir en la misma transacción.
func (uc *ProductCostUseCase) Create(ctx context.Context, in dto.ProductCostRequest, actorID string) (res *dto.ProductCostResponse, err error) {
	defer func() { uc.exec.record("product_cost", "create", err) }()
	month, err := uc.validate(&in)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	cost := &entity.ProductCost{
		ID:        uuid.New().String(),
		ProductID: in.ProductID,
		Month:     month,
		UnitCost:  in.UnitCost.Value,
		CreatedBy: actorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = uc.exec.inTx(ctx, func(ctx context.Context, repos TxRepos) error {
		product, err := repos.Products.GetByID(ctx, cost.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}
		cost.ProductName, cost.ProductCode = product.Name, product.Code
		return repos.Costs.Create(ctx, cost)
	})
	if err != nil {
		return nil, err
	}
	return ToProductCostResponse(cost), nil
}

// GetByID devuelve domain.ErrNotFound si no existe.
func (uc *ProductCostUseCase) GetByID(ctx context.Context, id string) (*dto.ProductCostResponse, error) {
	id = canonicalID(id)
	var cost *entity.ProductCost
	err := uc.exec.do(ctx, func(ctx context.Context) (err error) {
		cost, err = uc.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if cost == nil {
		return nil, domain.ErrNotFound
	}
	return ToProductCostResponse(cost), nil
}

// Update reemplaza producto, mes y costo unitario.
func (uc *ProductCostUseCase) Update(ctx context.Context, id string, in dto.ProductCostRequest) (res *dto.ProductCostResponse, err error) {
	id = canonicalID(id)
	defer func() { uc.exec.record("product_cost", "update", err) }()
	month, err := uc.validate(&in)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	var updated *entity.ProductCost
	err = uc.exec.inTx(ctx, func(ctx context.Context, repos TxRepos) error {
		cost, err := repos.Costs.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if cost == nil {
			return domain.ErrNotFound
		}
		product, err := repos.Products.GetByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}
		cost.ProductID = in.ProductID
		cost.Month = month
		cost.UnitCost = in.UnitCost.Value
		cost.UpdatedAt = now
		cost.ProductName, cost.ProductCode = product.Name, product.Code
		if err := repos.Costs.Update(ctx, cost); err != nil {
			return err
		}
		updated = cost
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToProductCostResponse(updated), nil
}

// Delete borra el costo sin condiciones; domain.ErrNotFound si no existe.
func (uc *ProductCostUseCase) Delete(ctx context.Context, id string) (err error) {
	id = canonicalID(id)
	defer func() { uc.exec.record("product_cost", "delete", err) }()
	return uc.exec.inTx(ctx, func(ctx context.Context, repos TxRepos) error {
		return repos.Costs.Delete(ctx, id)
	})
}

// List lista costos filtrando opcionalmente por producto y mes.
func (uc *ProductCostUseCase) List(ctx context.Context, q dto.ProductCostListQuery) ([]dto.ProductCostResponse, error) {
	f := repository.ProductCostFilter{ProductID: canonicalID(q.ProductID)}
	if q.Month != "" {
		m, err := validation.ParseMonth(q.Month)
		if err != nil {
			return nil, &domain.ValidationError{Fields: map[string]string{"month": "Valid month is required"}}
		}
		f.Month = &m
	}
	var list []*entity.ProductCost
	err := uc.exec.do(ctx, func(ctx context.Context) (err error) {
		list, err = uc.repo.List(ctx, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ProductCostResponses(list), nil
}
