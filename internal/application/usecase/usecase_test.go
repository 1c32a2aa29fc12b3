package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/costtrack-api/internal/application/dto"
	"github.com/jhoicas/costtrack-api/internal/application/usecase"
	"github.com/jhoicas/costtrack-api/internal/application/validation"
	"github.com/jhoicas/costtrack-api/internal/domain"
	"github.com/jhoicas/costtrack-api/internal/infrastructure/memstore"
)

const actorID = "00000000-0000-0000-0000-0000000000aa"

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type recorder struct {
	mu   sync.Mutex
	rows []string
}

func (r *recorder) RecordMutation(entity, op, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, entity+"/"+op+"/"+outcome)
}

type fixture struct {
	store     *memstore.Store
	products  *usecase.ProductUseCase
	customers *usecase.CustomerUseCase
	costs     *usecase.ProductCostUseCase
	rec       *recorder
}

func newFixture(t *testing.T, opts usecase.Options) *fixture {
	t.Helper()
	st := memstore.New()
	rec := &recorder{}
	if opts.Recorder == nil {
		opts.Recorder = rec
	}
	val := validation.New()
	return &fixture{
		store:     st,
		products:  usecase.NewProductUseCase(st.Products(), st, val, opts),
		customers: usecase.NewCustomerUseCase(st.Customers(), st, val, opts),
		costs:     usecase.NewProductCostUseCase(st.Costs(), st, val, opts),
		rec:       rec,
	}
}

func widget(code string) dto.ProductRequest {
	return dto.ProductRequest{
		ProductName:        "Widget",
		ProductCode:        code,
		ProductCategory:    "Hardware",
		Unit:               "pcs",
		CriticalStockLevel: dto.NewNumber(decimal.NewFromInt(10)),
	}
}

func acme(code string) dto.CustomerRequest {
	return dto.CustomerRequest{CustomerName: "Acme", CustomerCode: code, TelephoneNumber: "555-0100"}
}

func costFor(productID, month, unit string) dto.ProductCostRequest {
	return dto.ProductCostRequest{ProductID: productID, Month: month, UnitCost: dto.NewNumber(decimal.RequireFromString(unit))}
}

func (f *fixture) counts() (int, int, int) { return f.store.Counts() }

// ──────────────────────────────────────────────────────────────────────────────
// Create / duplicate guard
// ──────────────────────────────────────────────────────────────────────────────

func TestProductCreate_AsignaIdActorYTimestamps(t *testing.T) {
	f := newFixture(t, usecase.Options{})
	res, err := f.products.Create(context.Background(), widget("P1"), actorID)
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, actorID, res.CreatedBy)
	assert.False(t, res.CreatedAt.IsZero())
	assert.Equal(t, res.CreatedAt, res.UpdatedAt)
	assert.True(t, decimal.NewFromInt(10).Equal(res.CriticalStockLevel))

	got, err := f.products.GetByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, "P1", got.ProductCode)
}

func TestCustomerCreate_CodigoDuplicado(t *testing.T) {
	f := newFixture(t, usecase.Options{})
	ctx := context.Background()
	first, err := f.customers.Create(ctx, acme("C100"), actorID)
	require.NoError(t, err)
	assert.Equal(t, actorID, first.CreatedBy)

	_, err = f.customers.Create(ctx, acme("C100"), actorID)
	require.ErrorIs(t, err, domain.ErrDuplicate)
	var dup *domain.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "customer_code", dup.Field)

	_, customers, _ := f.counts()
	assert.Equal(t, 1, customers, "no debe crearse una segunda fila")

	second, err := f.customers.Create(ctx, acme("C101"), actorID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCustomerCreate_CodigoSensibleAMayusculas(t *testing.T) {
	f := newFixture(t, usecase.Options{})
	_, err := f.customers.Create(context.Background(), acme("c100"), actorID)
	require.NoError(t, err)
	_, err = f.customers.Create(context.Background(), acme("C100"), actorID)
	assert.NoError(t, err)
}

func TestCreate_ValidacionNoEscribe(t *testing.T) {
	f := newFixture(t, usecase.Options{})
	in := widget("P1")
	in.ProductName = " "
	_, err := f.products.Create(context.Background(), in, actorID)

	require.ErrorIs(t, err, domain.ErrInvalidInput)
	products, _, _ := f.counts()
	assert.Zero(t, products)
	assert.Equal(t, []string{"product/create/invalid"}, f.rec.rows)
}

// ──────────────────────────────────────────────────────────────────────────────
// Atomicity
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_FalloDespuesDelInsertHaceRollback(t *testing.T) {
	f := newFixture(t, usecase.Options{})
	f.store.FailAfterOnce("products.create", errors.New("disco lleno"))

	_, err := f.products.Create(context.Background(), widget("P1"), actorID)
	require.Error(t, err)

	products, _, _ := f.counts()
	assert.Zero(t, products, "el insert no debe quedar visible")

	_, err = f.products.Create(context.Background(), widget("P1"), actorID)
	require.NoError(t, err, "tras el rollback el código sigue libre")
}

func TestCreate_FalloEntreChequeoEInsert(t *testing.T) {
	f := newFixture(t, usecase.Options{})
	f.store.FailOnce("customers.create", errors.New("conexión perdida"))

	_, err := f.customers.Create(context.Background(), acme("C100"), actorID)
	require.Error(t, err)
	_, customers, _ := f.counts()
	assert.Zero(t, customers)
	assert.Equal(t, []string{"customer/create/error"}, f.rec.rows)
}

func TestUpdate_FalloEnCommitNoPublica(t *testing.T) {
	f := newFixture(t, usecase.Options{MaxRetries: 3})
	ctx := context.Background()
	p, err := f.products.Create(ctx, widget("P1"), actorID)
	require.NoError(t, err)

	in := widget("P1")
	in.ProductName = "Widget v2"
	f.store.FailOnce(memstore.OpCommit, errors.New("conexión reiniciada"))
	_, err = f.products.Update(ctx, p.ID, in)

	require.ErrorIs(t, err, domain.ErrCommitUnknown)
	require.ErrorIs(t, err, domain.ErrTransient)
	got, err := f.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.ProductName, "commit ambiguo no se reintenta")
}

// ──────────────────────────────────────────────────────────────────────────────
// Update
// ──────────────────────────────────────────────────────────────────────────────

func TestProductUpdate_Idempotente(t *testing.T) {
	f := newFixture(t, usecase.Options{})
	ctx := context.Background()
	p, err := f.products.Create(ctx, widget("P1"), actorID)
	require.NoError(t, err)

	in := widget("P1")
	in.Brand = "Acme"
	first, err := f.products.Update(ctx, p.ID, in)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := f.products.Update(ctx, p.ID, in)
	require.NoError(t, err)

	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
	first.UpdatedAt, second.UpdatedAt = time.Time{}, time.Time{}
	assert.Equal(t, first, second)
	assert.Equal(t, p.CreatedAt, second.CreatedAt)
	assert.Equal(t, actorID, second.CreatedBy)
}

func TestProductUpdate_CodigoExcluyeSiMismo(t *testing.T) {
	f := newFixture(t, usecase.Options{})
	ctx := context.Background()
	a, err := f.products.Create(ctx, widget("P1"), actorID)
	require.NoError(t, err)
	_, err = f.products.Create(ctx, widget("P2"), actorID)
	require.NoError(t, err)

	_, err = f.products.Update(ctx, a.ID, widget("P1"))
	assert.NoError(t, err, "conservar su propio código es válido")

	_, err = f.products.Update(ctx, a.ID, widget("P2"))
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestUpdate_IdEnMayusculasOLlavesExcluyeSiMismo(t *testing.T) {
	f := newFixture(t, usecase.Options{})
	ctx := context.Background()
	p, err := f.products.Create(ctx, widget("P1"), actorID)
	require.NoError(t, err)
	c, err := f.customers.Create(ctx, acme("C100"), actorID)
	require.NoError(t, err)

	upper := strings.ToUpper(p.ID)
	updated, err := f.products.Update(ctx, upper, widget("P1"))
	require.NoError(t, err, "el mismo registro con otra forma del id no es un duplicado")
	assert.Equal(t, p.ID, updated.ID)

	_, err = f.customers.Update(ctx, "{"+strings.ToUpper(c.ID)+"}", acme("C100"))
	require.NoError(t, err)

	cost, err := f.costs.Create(ctx, costFor(upper, "2024-02", "1"), actorID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, cost.ProductID)

	err = f.products.Delete(ctx, "urn:uuid:"+upper)
	var dep *domain.DependentsError
	require.ErrorAs(t, err, &dep)
	assert.Equal(t, 1, dep.Count)
}

func TestUpdateDelete_NoEncontrado(t *testing.T) {
	f := newFixture(t, usecase.Options{})
	ctx := context.Background()
	missing := "11111111-1111-1111-1111-111111111111"

	_, err := f.products.Update(ctx, missing, widget("P1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.customers.Update(ctx, missing, acme("C1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.products.Delete(ctx, missing), domain.ErrNotFound)
	assert.ErrorIs(t, f.customers.Delete(ctx, missing), domain.ErrNotFound)
	assert.ErrorIs(t, f.costs.Delete(ctx, missing), domain.ErrNotFound)

	products, customers, costs := f.counts()
	assert.Zero(t, products+customers+costs)
}

// ──────────────────────────────────────────────────────────────────────────────
// Referential guard
// ──────────────────────────────────────────────────────────────────────────────

func TestProductDelete_ConCostosAsociados(t *testing.T) {
	f := newFixture(t, usecase.Options{})
	ctx := context.Background()
	p, err := f.products.Create(ctx, widget("P1"), actorID)
	require.NoError(t, err)
	c, err := f.costs.Create(ctx, costFor(p.ID, "2024-01", "3.25"), actorID)
	require.NoError(t, err)

	err = f.products.Delete(ctx, p.ID)
	require.ErrorIs(t, err, domain.ErrHasDependents)
	var dep *domain.DependentsError
	require.ErrorAs(t, err, &dep)
	assert.Equal(t, usecase.ProductCostsFKey, dep.Constraint)
	assert.Equal(t, 1, dep.Count)

	products, _, _ := f.counts()
	assert.Equal(t, 1, products, "el producto sigue existiendo")

	require.NoError(t, f.costs.Delete(ctx, c.ID))
	require.NoError(t, f.products.Delete(ctx, p.ID))
	products, _, _ = f.counts()
	assert.Zero(t, products)
}

func TestCustomerDelete_SinGuardia(t *testing.T) {
	f := newFixture(t, usecase.Options{})
	c, err := f.customers.Create(context.Background(), acme("C1"), actorID)
	require.NoError(t, err)
	require.NoError(t, f.customers.Delete(context.Background(), c.ID))
	_, err = f.customers.GetByID(context.Background(), c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Product costs
// ──────────────────────────────────────────────────────────────────────────────

func TestCostCreate_ProductoInexistente(t *testing.T) {
	f := newFixture(t, usecase.Options{})
	_, err := f.costs.Create(context.Background(), costFor("22222222-2222-2222-2222-222222222222", "2024-02", "1"), actorID)

	require.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, _, costs := f.counts()
	assert.Zero(t, costs)
}

func TestCostCreate_NormalizaMesYEnriquece(t *testing.T) {
	f := newFixture(t, usecase.Options{})
	ctx := context.Background()
	p, err := f.products.Create(ctx, widget("P1"), actorID)
	require.NoError(t, err)

	c, err := f.costs.Create(ctx, costFor(p.ID, "2024-03-17", "4.5"), actorID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", c.Month)
	assert.Equal(t, "Widget", c.ProductName)
	assert.Equal(t, actorID, c.CreatedBy)

	upd, err := f.costs.Update(ctx, c.ID, costFor(p.ID, "2024-04", "5"))
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01", upd.Month)
	assert.Equal(t, c.CreatedAt, upd.CreatedAt)

	list, err := f.costs.List(ctx, dto.ProductCostListQuery{ProductID: p.ID, Month: "2024-04"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = f.costs.List(ctx, dto.ProductCostListQuery{Month: "abril"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCostCreate_MismoProductoYMesNoEsUnico(t *testing.T) {
	f := newFixture(t, usecase.Options{})
	ctx := context.Background()
	p, err := f.products.Create(ctx, widget("P1"), actorID)
	require.NoError(t, err)

	_, err = f.costs.Create(ctx, costFor(p.ID, "2024-03", "4"), actorID)
	require.NoError(t, err)
	_, err = f.costs.Create(ctx, costFor(p.ID, "2024-03-20", "4.5"), actorID)
	require.NoError(t, err)

	list, err := f.costs.List(ctx, dto.ProductCostListQuery{ProductID: p.ID, Month: "2024-03"})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

// ──────────────────────────────────────────────────────────────────────────────
// Transient failures
// ──────────────────────────────────────────────────────────────────────────────

func TestTransitorio_SeReintentaConBackoff(t *testing.T) {
	f := newFixture(t, usecase.Options{MaxRetries: 2, RetryBackoff: time.Millisecond})
	f.store.FailOnce(memstore.OpBegin, domain.ErrTransient)
	f.store.FailOnce(memstore.OpBegin, domain.ErrTransient)

	res, err := f.products.Create(context.Background(), widget("P1"), actorID)
	require.NoError(t, err)
	products, _, _ := f.counts()
	assert.Equal(t, 1, products)
	assert.NotEmpty(t, res.ID)
}

func TestTransitorio_AgotaReintentos(t *testing.T) {
	f := newFixture(t, usecase.Options{MaxRetries: 1, RetryBackoff: time.Millisecond})
	for i := 0; i < 3; i++ {
		f.store.FailOnce("customers.exists", domain.ErrTransient)
	}
	_, err := f.customers.Create(context.Background(), acme("C1"), actorID)
	require.ErrorIs(t, err, domain.ErrTransient)
	_, customers, _ := f.counts()
	assert.Zero(t, customers)
	assert.Equal(t, []string{"customer/create/transient"}, f.rec.rows)
}

func TestTimeoutPorOperacion_EsTransitorio(t *testing.T) {
	f := newFixture(t, usecase.Options{OpTimeout: 5 * time.Millisecond})
	f.store.Delay("products.exists", 50*time.Millisecond)

	_, err := f.products.Create(context.Background(), widget("P1"), actorID)
	require.ErrorIs(t, err, domain.ErrTransient)
	products, _, _ := f.counts()
	assert.Zero(t, products)
}

func TestCancelacionDelLlamador_NoEscribeNiReintenta(t *testing.T) {
	f := newFixture(t, usecase.Options{MaxRetries: 3})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.products.Create(ctx, widget("P1"), actorID)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrTransient)
	products, _, _ := f.counts()
	assert.Zero(t, products)
}

// ──────────────────────────────────────────────────────────────────────────────
// Listados
// ──────────────────────────────────────────────────────────────────────────────

func TestListados_FiltrosYOrden(t *testing.T) {
	f := newFixture(t, usecase.Options{})
	ctx := context.Background()
	a := widget("AX-1")
	a.ProductName, a.Brand = "Tornillo", "Acme"
	a.CriticalStockLevel = dto.NewNumber(decimal.NewFromInt(5))
	_, err := f.products.Create(ctx, a, actorID)
	require.NoError(t, err)
	b := widget("BX-2")
	b.ProductCategory = "Fijaciones"
	b.CriticalStockLevel = dto.NewNumber(decimal.NewFromInt(50))
	_, err = f.products.Create(ctx, b, actorID)
	require.NoError(t, err)

	all, err := f.products.List(ctx, dto.ProductListQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "BX-2", all[0].ProductCode, "más reciente primero")

	byBrand, err := f.products.List(ctx, dto.ProductListQuery{Brand: "Acme"})
	require.NoError(t, err)
	require.Len(t, byBrand, 1)

	search, err := f.products.List(ctx, dto.ProductListQuery{Search: "tornI"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, "AX-1", search[0].ProductCode)

	low, err := f.products.LowStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, "BX-2", low[0].ProductCode, "mayor nivel crítico primero")

	risky := acme("C2")
	risky.BalanceRiskLimit = dto.NewNumber(decimal.NewFromInt(900))
	_, err = f.customers.Create(ctx, risky, actorID)
	require.NoError(t, err)
	_, err = f.customers.Create(ctx, acme("C3"), actorID)
	require.NoError(t, err)
	credit, err := f.customers.CreditRisk(ctx)
	require.NoError(t, err)
	require.Len(t, credit, 1)
	assert.Equal(t, "C2", credit[0].CustomerCode)
}
