package dto

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Number es un campo numérico tolerante: acepta número JSON o string numérico.
// null y "" cuentan como ausente; cualquier otro valor no numérico queda marcado Invalid
// para que la validación lo reporte por campo en lugar de fallar el decode.
type Number struct {
	Value   decimal.Decimal
	Set     bool
	Invalid bool
}

// NewNumber construye un Number presente.
func NewNumber(d decimal.Decimal) Number { return Number{Value: d, Set: true} }

// UnmarshalJSON nunca devuelve error.
func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			n.Set, n.Invalid = true, true
			return nil
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			return nil
		}
	}
	d, err := decimal.NewFromString(raw)
	n.Set = true
	if err != nil {
		n.Invalid = true
		return nil
	}
	n.Value = d
	return nil
}

// MarshalJSON serializa como decimal o null.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Set || n.Invalid {
		return []byte("null"), nil
	}
	return n.Value.MarshalJSON()
}

// Decimal devuelve el valor si está presente.
func (n Number) Decimal() *decimal.Decimal {
	if !n.Set || n.Invalid {
		return nil
	}
	d := n.Value
	return &d
}
