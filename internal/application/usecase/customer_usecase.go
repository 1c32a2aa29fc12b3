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

// CustomerUseCase casos de uso CRUD para clientes. El borrado no tiene guardia referencial.
type CustomerUseCase struct {
	repo repository.CustomerRepository
	val  *validation.Validator
	exec executor
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(repo repository.CustomerRepository, tx TxRunner, val *validation.Validator, opts Options) *CustomerUseCase {
	return &CustomerUseCase{repo: repo, val: val, exec: newExecutor(tx, opts)}
}

// applyCustomer copia el payload validado sobre la entidad.
func applyCustomer(c *entity.Customer, in dto.CustomerRequest) {
	c.Name = in.CustomerName
	c.Code = in.CustomerCode
	c.Address = in.Address
	c.CityOrDistrict = in.CityOrDistrict
	c.SalesRep = in.SalesRep
	c.Country = in.Country
	c.RegionOrState = in.RegionOrState
	c.TelephoneNumber = in.TelephoneNumber
	c.Email = in.Email
	c.ContactPerson = in.ContactPerson
	c.PaymentTermsLimit = nil
	if d := in.PaymentTermsLimit.Decimal(); d != nil {
		days := int(d.IntPart())
		c.PaymentTermsLimit = &days
	}
	c.BalanceRiskLimit = in.BalanceRiskLimit.Decimal()
}

// Create valida, verifica que customer_code no exista e inserta.
func (uc *CustomerUseCase) Create(ctx context.Context, in dto.CustomerRequest, actorID string) (res *dto.CustomerResponse, err error) {
	defer func() { uc.exec.record("customer", "create", err) }()
	if err := uc.val.Customer(&in).Err(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	customer := &entity.Customer{ID: uuid.New().String(), CreatedBy: actorID, CreatedAt: now, UpdatedAt: now}
	applyCustomer(customer, in)
	err = uc.exec.inTx(ctx, func(ctx context.Context, repos TxRepos) error {
		exists, err := repos.Customers.ExistsByCode(ctx, customer.Code, "")
		if err != nil {
			return err
		}
		if exists {
			return &domain.DuplicateError{Field: "customer_code"}
		}
		return repos.Customers.Create(ctx, customer)
	})
	if err != nil {
		return nil, err
	}
	return ToCustomerResponse(customer), nil
}

// GetByID devuelve domain.ErrNotFound si no existe.
func (uc *CustomerUseCase) GetByID(ctx context.Context, id string) (*dto.CustomerResponse, error) {
	id = canonicalID(id)
	var customer *entity.Customer
	err := uc.exec.do(ctx, func(ctx context.Context) (err error) {
		customer, err = uc.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}
	return ToCustomerResponse(customer), nil
}

// Update reemplaza los campos del cliente; customer_code no puede colisionar con otro.
func (uc *CustomerUseCase) Update(ctx context.Context, id string, in dto.CustomerRequest) (res *dto.CustomerResponse, err error) {
	id = canonicalID(id)
	defer func() { uc.exec.record("customer", "update", err) }()
	if err := uc.val.Customer(&in).Err(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	var updated *entity.Customer
	err = uc.exec.inTx(ctx, func(ctx context.Context, repos TxRepos) error {
		customer, err := repos.Customers.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if customer == nil {
			return domain.ErrNotFound
		}
		exists, err := repos.Customers.ExistsByCode(ctx, in.CustomerCode, id)
		if err != nil {
			return err
		}
		if exists {
			return &domain.DuplicateError{Field: "customer_code"}
		}
		applyCustomer(customer, in)
		customer.UpdatedAt = now
		if err := repos.Customers.Update(ctx, customer); err != nil {
			return err
		}
		updated, err = repos.Customers.GetByID(ctx, id)
		if err == nil && updated == nil {
			updated = customer
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToCustomerResponse(updated), nil
}

// Delete borra el cliente; domain.ErrNotFound si no existe.
func (uc *CustomerUseCase) Delete(ctx context.Context, id string) (err error) {
	id = canonicalID(id)
	defer func() { uc.exec.record("customer", "delete", err) }()
	return uc.exec.inTx(ctx, func(ctx context.Context, repos TxRepos) error {
		return repos.Customers.Delete(ctx, id)
	})
}

// List lista clientes con filtros opcionales.
func (uc *CustomerUseCase) List(ctx context.Context, q dto.CustomerListQuery) ([]dto.CustomerResponse, error) {
	var list []*entity.Customer
	err := uc.exec.do(ctx, func(ctx context.Context) (err error) {
		list, err = uc.repo.List(ctx, repository.CustomerFilter{SalesRep: q.SalesRep, Country: q.Country, Region: q.Region, Search: q.Search})
		return err
	})
	if err != nil {
		return nil, err
	}
	return customerResponses(list), nil
}

// CreditRisk lista los clientes con límite de riesgo definido, del menor al mayor.
func (uc *CustomerUseCase) CreditRisk(ctx context.Context) ([]dto.CustomerResponse, error) {
	var list []*entity.Customer
	err := uc.exec.do(ctx, func(ctx context.Context) (err error) {
		list, err = uc.repo.ListWithRiskLimit(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return customerResponses(list), nil
}
