package validation_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/costtrack-api/internal/application/dto"
	"github.com/jhoicas/costtrack-api/internal/application/validation"
	"github.com/jhoicas/costtrack-api/internal/domain"
)

func validProduct() *dto.ProductRequest {
	return &dto.ProductRequest{
		ProductName:        "Widget",
		ProductCode:        "P1",
		ProductCategory:    "Hardware",
		Unit:               "pcs",
		CriticalStockLevel: dto.NewNumber(decimal.NewFromInt(10)),
	}
}

func TestProduct_Valido(t *testing.T) {
	r := validation.New().Product(validProduct())
	assert.True(t, r.Valid)
	assert.Empty(t, r.Fields)
	assert.NoError(t, r.Err())
}

func TestProduct_CamposEnBlancoYNoPositivo(t *testing.T) {
	in := validProduct()
	in.ProductName = "   "
	in.Unit = ""
	in.CriticalStockLevel = dto.NewNumber(decimal.Zero)

	r := validation.New().Product(in)
	require.False(t, r.Valid)
	assert.Equal(t, "Product name is required", r.Fields["product_name"])
	assert.Equal(t, "Unit is required", r.Fields["unit"])
	assert.Equal(t, "Critical stock level must be a positive number", r.Fields["critical_stock_level"])
	assert.NotContains(t, r.Fields, "product_code")

	err := r.Err()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
}

func TestProduct_NormalizaEspaciosYNFC(t *testing.T) {
	in := validProduct()
	in.ProductCode = "  P1  "
	in.ProductName = "Cafe\u0301" // e + acento combinante

	r := validation.New().Product(in)
	require.True(t, r.Valid)
	assert.Equal(t, "P1", in.ProductCode)
	assert.Equal(t, "Caf\u00e9", in.ProductName)
}

func TestDecode_NumeroTolerante(t *testing.T) {
	v := validation.New()
	cases := map[string]bool{
		`"10"`:    true,
		`10.5`:    true,
		`"abc"`:   false,
		`-1`:      false,
		`null`:    false,
		`""`:      false,
		`{"x":1}`: false,
		`true`:    false,
	}
	for raw, valid := range cases {
		body := `{"product_name":"W","product_code":"P1","product_category":"H","unit":"u","critical_stock_level":` + raw + `}`
		var in dto.ProductRequest
		r := v.Decode(validation.KindProduct, []byte(body), &in)
		assert.Equal(t, valid, r.Valid, raw)
		if !valid {
			assert.Contains(t, r.Fields, "critical_stock_level", raw)
		}
	}
}

func TestDecode_CuerpoMalformado(t *testing.T) {
	v := validation.New()
	var in dto.ProductRequest

	r := v.Decode(validation.KindProduct, []byte(`{"product_name":`), &in)
	require.False(t, r.Valid)
	assert.Contains(t, r.Fields, validation.BodyField)

	r = v.Decode(validation.KindProduct, []byte(``), &in)
	assert.False(t, r.Valid)

	r = v.Decode(validation.KindProduct, []byte(`{"product_name": 12}`), &in)
	require.False(t, r.Valid)
	assert.Contains(t, r.Fields, "product_name")
}

func TestCustomer_Reglas(t *testing.T) {
	v := validation.New()
	base := func() *dto.CustomerRequest {
		return &dto.CustomerRequest{CustomerName: "Acme", CustomerCode: "C100", TelephoneNumber: "555-1234"}
	}

	assert.True(t, v.Customer(base()).Valid, "opcionales ausentes son válidos")

	in := base()
	in.Email = "no-es-email"
	in.PaymentTermsLimit = dto.NewNumber(decimal.RequireFromString("15.5"))
	in.BalanceRiskLimit = dto.NewNumber(decimal.NewFromInt(-5))
	r := v.Customer(in)
	require.False(t, r.Valid)
	assert.Equal(t, "Valid email format is required", r.Fields["email"])
	assert.Equal(t, "Payment terms limit must be a positive integer", r.Fields["payment_terms_limit"])
	assert.Equal(t, "Balance risk limit must be a positive number", r.Fields["balance_risk_limit"])

	in = base()
	in.PaymentTermsLimit = dto.NewNumber(decimal.Zero)
	r = v.Customer(in)
	assert.Contains(t, r.Fields, "payment_terms_limit", "cero presente no es positivo")

	in = base()
	in.TelephoneNumber = " "
	in.Email = "ops@acme.io"
	in.PaymentTermsLimit = dto.NewNumber(decimal.NewFromInt(30))
	r = v.Customer(in)
	assert.Equal(t, map[string]string{"telephone_number": "Telephone number is required"}, r.Fields)
}

func TestProductCost_MesNormalizado(t *testing.T) {
	v := validation.New()
	for _, month := range []string{"2024-03", "2024-03-17", "2024-03-17T10:00:00Z"} {
		in := &dto.ProductCostRequest{
			ProductID: "5f0c6c2e-8a4b-4a53-9b8e-6c0c1f3f2d11",
			Month:     month,
			UnitCost:  dto.NewNumber(decimal.RequireFromString("2.5")),
		}
		r := v.ProductCost(in)
		require.True(t, r.Valid, month)
		assert.Equal(t, "2024-03-01", in.Month)
	}
}

func TestProductCost_Invalido(t *testing.T) {
	r := validation.New().ProductCost(&dto.ProductCostRequest{ProductID: "x", Month: "marzo"})
	require.False(t, r.Valid)
	assert.Equal(t, "Product ID must be a valid identifier", r.Fields["product_id"])
	assert.Equal(t, "Valid month is required", r.Fields["month"])
	assert.Equal(t, "Unit cost must be a positive number", r.Fields["unit_cost"])

	r = validation.New().ProductCost(&dto.ProductCostRequest{})
	assert.Equal(t, "Product ID is required", r.Fields["product_id"])
}

func TestNumeros_LimitesDeLaColumna(t *testing.T) {
	v := validation.New()
	cost := func(unit string) *dto.ProductCostRequest {
		return &dto.ProductCostRequest{
			ProductID: "5f0c6c2e-8a4b-4a53-9b8e-6c0c1f3f2d11",
			Month:     "2024-03",
			UnitCost:  dto.NewNumber(decimal.RequireFromString(unit)),
		}
	}
	for unit, valid := range map[string]bool{
		"0.0001":          true,
		"9999999999.9999": true,
		"0.1":             true,
		"0.00001":         false,
		"1.23456":         false,
		"10000000000":     false,
		"123456789012.5":  false,
	} {
		r := v.ProductCost(cost(unit))
		assert.Equal(t, valid, r.Valid, unit)
		if !valid {
			assert.Equal(t, "Unit cost allows at most 4 decimal places and must be less than 10000000000", r.Fields["unit_cost"], unit)
		}
	}

	p := validProduct()
	p.CriticalStockLevel = dto.NewNumber(decimal.RequireFromString("0.00001"))
	assert.Contains(t, v.Product(p).Fields, "critical_stock_level")

	c := &dto.CustomerRequest{CustomerName: "Acme", CustomerCode: "C100", TelephoneNumber: "555-1234",
		BalanceRiskLimit: dto.NewNumber(decimal.RequireFromString("123456789012.5"))}
	assert.Contains(t, v.Customer(c).Fields, "balance_risk_limit")
}

func TestProductCost_IdCanonico(t *testing.T) {
	in := &dto.ProductCostRequest{
		ProductID: " {5F0C6C2E-8A4B-4A53-9B8E-6C0C1F3F2D11} ",
		Month:     "2024-03",
		UnitCost:  dto.NewNumber(decimal.NewFromInt(1)),
	}
	require.True(t, validation.New().ProductCost(in).Valid)
	assert.Equal(t, "5f0c6c2e-8a4b-4a53-9b8e-6c0c1f3f2d11", in.ProductID)
}

func TestValidate_KindDesconocidoNoPanic(t *testing.T) {
	v := validation.New()
	assert.NotPanics(t, func() {
		assert.False(t, v.Validate("invoice", nil).Valid)
		assert.False(t, v.Validate(validation.KindProduct, "texto").Valid)
		assert.False(t, v.Validate(validation.KindCustomer, (*dto.CustomerRequest)(nil)).Valid)
	})
	assert.True(t, v.Validate(validation.KindProduct, validProduct()).Valid)
}

func TestParseMonth(t *testing.T) {
	m, err := validation.ParseMonth("2023-12")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), m)

	_, err = validation.ParseMonth("2023-13")
	assert.Error(t, err)
}
