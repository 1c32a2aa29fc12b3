package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerRequest entrada para crear o reemplazar un cliente.
type CustomerRequest struct {
	CustomerName      string `json:"customer_name" validate:"notblank"`
	CustomerCode      string `json:"customer_code" validate:"notblank"`
	Address           string `json:"address"`
	CityOrDistrict    string `json:"city_or_district"`
	SalesRep          string `json:"sales_rep"`
	Country           string `json:"country"`
	RegionOrState     string `json:"region_or_state"`
	TelephoneNumber   string `json:"telephone_number" validate:"notblank"`
	Email             string `json:"email" validate:"omitempty,email"`
	ContactPerson     string `json:"contact_person"`
	PaymentTermsLimit Number `json:"payment_terms_limit" validate:"omitempty,posint"`
	BalanceRiskLimit  Number `json:"balance_risk_limit" validate:"omitempty,positive,storable"`
}

// CustomerResponse salida de un cliente.
type CustomerResponse struct {
	ID                string           `json:"id"`
	CustomerName      string           `json:"customer_name"`
	CustomerCode      string           `json:"customer_code"`
	Address           string           `json:"address"`
	CityOrDistrict    string           `json:"city_or_district"`
	SalesRep          string           `json:"sales_rep"`
	Country           string           `json:"country"`
	RegionOrState     string           `json:"region_or_state"`
	TelephoneNumber   string           `json:"telephone_number"`
	Email             string           `json:"email"`
	ContactPerson     string           `json:"contact_person"`
	PaymentTermsLimit *int             `json:"payment_terms_limit"`
	BalanceRiskLimit  *decimal.Decimal `json:"balance_risk_limit"`
	CreatedBy         string           `json:"created_by"`
	CreatedByName     string           `json:"created_by_name,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// CustomerListQuery filtros de GET /api/customers.
type CustomerListQuery struct {
	SalesRep string `query:"sales_rep"`
	Country  string `query:"country"`
	Region   string `query:"region"`
	Search   string `query:"search"`
}
