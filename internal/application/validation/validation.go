// Package validation normaliza y valida los payloads de entrada antes de llegar al repositorio.
// Solo hace chequeos estructurales; unicidad e integridad referencial quedan para los casos de uso.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/costtrack-api/internal/application/dto"
	"github.com/jhoicas/costtrack-api/internal/domain"
)

// Kind tipo de entidad validada.
type Kind string

const (
	KindProduct     Kind = "product"
	KindCustomer    Kind = "customer"
	KindProductCost Kind = "product_cost"
)

// BodyField clave usada cuando el cuerpo completo no se pudo interpretar.
const BodyField = "body"

// Límites de las columnas NUMERIC(14, 4): a lo sumo 4 decimales y valor absoluto menor a 10^10.
const MaxScale = 4

var maxMagnitude = decimal.New(1, 10)

// Result resultado de una validación: Fields vacío si es válido.
type Result struct {
	Valid  bool
	Fields map[string]string
}

// Err devuelve *domain.ValidationError si el resultado no es válido, nil si lo es.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &domain.ValidationError{Fields: r.Fields}
}

func ok() Result { return Result{Valid: true, Fields: map[string]string{}} }

func fail(fields map[string]string) Result { return Result{Valid: false, Fields: fields} }

// Mensajes por campo; la clave "campo.tag" tiene prioridad sobre "campo".
var messages = map[string]string{
	"product_name":         "Product name is required",
	"product_code":         "Valid product code is required",
	"product_category":     "Product category is required",
	"unit":                 "Unit is required",
	"critical_stock_level": "Critical stock level must be a positive number",
	"customer_name":        "Customer name is required",
	"customer_code":        "Valid customer code is required",
	"telephone_number":     "Telephone number is required",
	"email":                "Valid email format is required",
	"payment_terms_limit":  "Payment terms limit must be a positive integer",
	"balance_risk_limit":   "Balance risk limit must be a positive number",
	"product_id":           "Product ID is required",
	"product_id.uuid":      "Product ID must be a valid identifier",
	"month":                "Valid month is required",
	"unit_cost":            "Unit cost must be a positive number",

	"critical_stock_level.storable": "Critical stock level allows at most 4 decimal places and must be less than 10000000000",
	"balance_risk_limit.storable":   "Balance risk limit allows at most 4 decimal places and must be less than 10000000000",
	"unit_cost.storable":            "Unit cost allows at most 4 decimal places and must be less than 10000000000",
}

// Validator envuelve go-playground/validator con los tags propios del dominio.
type Validator struct {
	v *validator.Validate
}

// New construye el validador. Es seguro para uso concurrente.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// dto.Number se valida como *float64: nil si está ausente, NaN si no es numérico.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		n, ok := field.Interface().(dto.Number)
		if !ok || !n.Set {
			return (*float64)(nil)
		}
		if n.Invalid {
			f := math.NaN()
			return &f
		}
		f := n.Value.InexactFloat64()
		return &f
	}, dto.Number{})
	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "positive", func(fl validator.FieldLevel) bool {
		f, ok := floatOf(fl.Field())
		return ok && f > 0
	})
	mustRegister(v, "posint", func(fl validator.FieldLevel) bool {
		f, ok := floatOf(fl.Field())
		return ok && f > 0 && f == math.Trunc(f) && f <= math.MaxInt32
	})
	mustRegister(v, "storable", func(fl validator.FieldLevel) bool {
		f, ok := floatOf(fl.Field())
		if !ok {
			return false
		}
		return storable(decimal.NewFromFloat(f))
	})
	mustRegister(v, "month", func(fl validator.FieldLevel) bool {
		_, err := ParseMonth(fl.Field().String())
		return err == nil
	})
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: registrar %s: %v", tag, err))
	}
}

// storable indica si d cabe en una columna NUMERIC(14, 4) sin redondeo.
func storable(d decimal.Decimal) bool {
	return d.Abs().LessThan(maxMagnitude) && d.Equal(d.Truncate(MaxScale))
}

func floatOf(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	default:
		return 0, false
	}
}

// Validate normaliza y valida payload según kind. payload debe ser el puntero al DTO
// correspondiente; cualquier otro valor produce un resultado inválido, nunca un panic.
func (val *Validator) Validate(kind Kind, payload any) Result {
	switch kind {
	case KindProduct:
		if p, ok := payload.(*dto.ProductRequest); ok && p != nil {
			return val.Product(p)
		}
	case KindCustomer:
		if p, ok := payload.(*dto.CustomerRequest); ok && p != nil {
			return val.Customer(p)
		}
	case KindProductCost:
		if p, ok := payload.(*dto.ProductCostRequest); ok && p != nil {
			return val.ProductCost(p)
		}
	default:
		return fail(map[string]string{BodyField: fmt.Sprintf("unknown payload kind %q", kind)})
	}
	return fail(map[string]string{BodyField: "Invalid payload"})
}

// Product normaliza y valida un producto.
func (val *Validator) Product(in *dto.ProductRequest) Result {
	in.ProductName = clean(in.ProductName)
	in.ProductCode = clean(in.ProductCode)
	in.ProductCategory = clean(in.ProductCategory)
	in.Unit = clean(in.Unit)
	in.Brand = clean(in.Brand)
	return val.run(in)
}

// Customer normaliza y valida un cliente.
func (val *Validator) Customer(in *dto.CustomerRequest) Result {
	for _, s := range []*string{
		&in.CustomerName, &in.CustomerCode, &in.Address, &in.CityOrDistrict, &in.SalesRep,
		&in.Country, &in.RegionOrState, &in.TelephoneNumber, &in.Email, &in.ContactPerson,
	} {
		*s = clean(*s)
	}
	return val.run(in)
}

// ProductCost normaliza y valida un costo. Un mes válido queda como YYYY-MM-01 y el
// product_id en su forma UUID canónica.
func (val *Validator) ProductCost(in *dto.ProductCostRequest) Result {
	in.ProductID = clean(in.ProductID)
	if u, err := uuid.Parse(in.ProductID); err == nil {
		in.ProductID = u.String()
	}
	in.Month = clean(in.Month)
	if m, err := ParseMonth(in.Month); err == nil {
		in.Month = m.Format(time.DateOnly)
	}
	return val.run(in)
}

// Email indica si s es un email válido con la misma regla del tag "email".
func (val *Validator) Email(s string) bool {
	return val.v.Var(s, "required,email") == nil
}

func (val *Validator) run(s any) Result {
	err := val.v.Struct(s)
	if err == nil {
		return ok()
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fail(map[string]string{BodyField: "Invalid payload"})
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := fields[name]; seen {
			continue
		}
		fields[name] = message(name, fe.Tag())
	}
	return fail(fields)
}

func message(field, tag string) string {
	if m, ok := messages[field+"."+tag]; ok {
		return m
	}
	if m, ok := messages[field]; ok {
		return m
	}
	return fmt.Sprintf("%s is invalid", field)
}

// clean recorta espacios y normaliza a NFC.
func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

var monthLayouts = []string{"2006-01", time.DateOnly, time.RFC3339, time.RFC3339Nano}

// ParseMonth interpreta un mes y lo normaliza al día 1 en UTC.
func ParseMonth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("mes inválido %q", s)
}

// DecodeJSON decodifica body en dst. Un error de sintaxis o de tipo se traduce a errores por campo.
func DecodeJSON(body []byte, dst any) Result {
	if len(strings.TrimSpace(string(body))) == 0 {
		return fail(map[string]string{BodyField: "Request body is required"})
	}
	err := json.Unmarshal(body, dst)
	if err == nil {
		return ok()
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		field := typeErr.Field
		return fail(map[string]string{field: message(field, "type")})
	}
	return fail(map[string]string{BodyField: "Invalid JSON body"})
}

// Decode decodifica y valida en un paso.
func (val *Validator) Decode(kind Kind, body []byte, dst any) Result {
	if r := DecodeJSON(body, dst); !r.Valid {
		return r
	}
	return val.Validate(kind, dst)
}
