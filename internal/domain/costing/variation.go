package costing

import "github.com/shopspring/decimal"

// Trend dirección de la variación entre dos costos.
type Trend string

const (
	Increasing Trend = "increasing"
	Decreasing Trend = "decreasing"
	Stable     Trend = "stable"
)

var hundred = decimal.NewFromInt(100)

// Variation resultado de comparar un costo con el del mes anterior (servicio de dominio).
type Variation struct {
	Change     decimal.Decimal
	Percentage *decimal.Decimal // nil si el costo anterior es 0
	Trend      Trend
}

// Compare calcula Change = current - previous y Percentage = Change / previous * 100 (2 decimales).
func Compare(current, previous decimal.Decimal) Variation {
	v := Variation{Change: current.Sub(previous), Trend: Stable}
	if !previous.IsZero() {
		pct := v.Change.Div(previous).Mul(hundred).Round(2)
		v.Percentage = &pct
	}
	switch v.Change.Sign() {
	case 1:
		v.Trend = Increasing
	case -1:
		v.Trend = Decreasing
	}
	return v
}
