package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo.
// CreatedByName es de solo lectura (join con users), no se persiste.
type Product struct {
	ID                 string
	Name               string
	Code               string // único, sensible a mayúsculas
	Category           string
	Unit               string
	CriticalStockLevel decimal.Decimal
	Brand              string
	CreatedBy          string
	CreatedByName      string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
