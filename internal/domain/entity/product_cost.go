package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductCost es una observación de costo unitario para un producto en un mes.
// Month siempre es el día 1 del mes (UTC). ProductName y ProductCode vienen del join.
type ProductCost struct {
	ID          string
	ProductID   string
	Month       time.Time
	UnitCost    decimal.Decimal
	CreatedBy   string
	ProductName string
	ProductCode string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MonthStart normaliza una fecha al primer día de su mes en UTC.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
