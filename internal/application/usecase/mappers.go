package usecase

import (
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/costtrack-api/internal/application/dto"
	"github.com/jhoicas/costtrack-api/internal/domain/entity"
)

// canonicalID lleva un UUID a su forma canónica en minúsculas (acepta mayúsculas, llaves o urn:).
// Un id que no es UUID se devuelve sin cambios y los repositorios lo tratan como inexistente.
func canonicalID(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return id
}

// ToProductResponse mapea la entidad a su DTO de salida.
func ToProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:                 p.ID,
		ProductName:        p.Name,
		ProductCode:        p.Code,
		ProductCategory:    p.Category,
		Unit:               p.Unit,
		CriticalStockLevel: p.CriticalStockLevel,
		Brand:              p.Brand,
		CreatedBy:          p.CreatedBy,
		CreatedByName:      p.CreatedByName,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func ToCustomerResponse(c *entity.Customer) *dto.CustomerResponse {
	if c == nil {
		return nil
	}
	return &dto.CustomerResponse{
		ID:                c.ID,
		CustomerName:      c.Name,
		CustomerCode:      c.Code,
		Address:           c.Address,
		CityOrDistrict:    c.CityOrDistrict,
		SalesRep:          c.SalesRep,
		Country:           c.Country,
		RegionOrState:     c.RegionOrState,
		TelephoneNumber:   c.TelephoneNumber,
		Email:             c.Email,
		ContactPerson:     c.ContactPerson,
		PaymentTermsLimit: c.PaymentTermsLimit,
		BalanceRiskLimit:  c.BalanceRiskLimit,
		CreatedBy:         c.CreatedBy,
		CreatedByName:     c.CreatedByName,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func ToProductCostResponse(c *entity.ProductCost) *dto.ProductCostResponse {
	if c == nil {
		return nil
	}
	return &dto.ProductCostResponse{
		ID:          c.ID,
		ProductID:   c.ProductID,
		Month:       c.Month.Format(time.DateOnly),
		UnitCost:    c.UnitCost,
		ProductName: c.ProductName,
		ProductCode: c.ProductCode,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func productResponses(list []*entity.Product) []dto.ProductResponse {
	out := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, *ToProductResponse(p))
	}
	return out
}

func customerResponses(list []*entity.Customer) []dto.CustomerResponse {
	out := make([]dto.CustomerResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *ToCustomerResponse(c))
	}
	return out
}

// ProductCostResponses mapea una lista de costos.
func ProductCostResponses(list []*entity.ProductCost) []dto.ProductCostResponse {
	out := make([]dto.ProductCostResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *ToProductCostResponse(c))
	}
	return out
}
