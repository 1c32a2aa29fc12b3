package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer representa un cliente. Los campos de texto opcionales se guardan como "" cuando no aplican.
type Customer struct {
	ID                string
	Name              string
	Code              string // único, sensible a mayúsculas
	Address           string
	CityOrDistrict    string
	SalesRep          string
	Country           string
	RegionOrState     string
	TelephoneNumber   string
	Email             string
	ContactPerson     string
	PaymentTermsLimit *int             // días
	BalanceRiskLimit  *decimal.Decimal // nil = sin límite
	CreatedBy         string
	CreatedByName     string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasRiskLimit indica si el cliente tiene un límite de riesgo definido.
func (c *Customer) HasRiskLimit() bool { return c.BalanceRiskLimit != nil }
