//go:build integration

package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/costtrack-api/internal/application/usecase"
	"github.com/jhoicas/costtrack-api/internal/domain"
	"github.com/jhoicas/costtrack-api/internal/domain/access"
	"github.com/jhoicas/costtrack-api/internal/domain/entity"
	"github.com/jhoicas/costtrack-api/internal/domain/repository"
	"github.com/jhoicas/costtrack-api/pkg/config"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("costtrack_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		cctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cctx); err != nil {
			t.Logf("terminar contenedor: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 5})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	applied, err := Migrate(ctx, pool)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql"}, applied)

	again, err := Migrate(ctx, pool)
	require.NoError(t, err)
	assert.Empty(t, again, "las migraciones son idempotentes")
	return pool
}

func seedUser(t *testing.T, pool *pgxpool.Pool) *entity.User {
	t.Helper()
	now := time.Now().UTC()
	u := &entity.User{ID: uuid.NewString(), Email: "ana@example.com", PasswordHash: "x", Name: "Ana",
		Role: access.RoleManager, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewUserRepository(pool).Create(context.Background(), u))
	return u
}

func product(code, actor string) *entity.Product {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &entity.Product{ID: uuid.NewString(), Name: "Widget " + code, Code: code, Category: "Hardware",
		Unit: "pcs", CriticalStockLevel: decimal.RequireFromString("10.5"), CreatedBy: actor, CreatedAt: now, UpdatedAt: now}
}

func TestIntegration_Repositories(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	user := seedUser(t, pool)
	products := NewProductRepository(pool)
	costs := NewProductCostRepository(pool)
	customers := NewCustomerRepository(pool)
	users := NewUserRepository(pool)

	got, err := users.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, access.RoleManager, got.Role)
	err = users.Create(ctx, &entity.User{ID: uuid.NewString(), Email: "ana@example.com", PasswordHash: "x", Role: access.RoleViewer})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	p := product("P1", user.ID)
	require.NoError(t, products.Create(ctx, p))
	err = products.Create(ctx, product("P1", user.ID))
	assert.ErrorIs(t, err, domain.ErrDuplicate, "UNIQUE de product_code")

	read, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, read)
	assert.Equal(t, "Ana", read.CreatedByName)
	assert.True(t, p.CriticalStockLevel.Equal(read.CriticalStockLevel))

	missing, err := products.GetByID(ctx, "no-es-uuid")
	require.NoError(t, err)
	assert.Nil(t, missing)

	exists, err := products.ExistsByCode(ctx, "P1", p.ID)
	require.NoError(t, err)
	assert.False(t, exists, "excluye al propio producto")
	exists, err = products.ExistsByCode(ctx, "P1", strings.ToUpper(p.ID))
	require.NoError(t, err)
	assert.False(t, exists, "compara el id por valor UUID, no por texto")
	exists, err = products.ExistsByCode(ctx, "P1", "")
	require.NoError(t, err)
	assert.True(t, exists)

	tiny := product("P2", user.ID)
	tiny.CriticalStockLevel = decimal.RequireFromString("0.00001")
	var verr *domain.ValidationError
	require.ErrorAs(t, products.Create(ctx, tiny), &verr, "se redondea a 0 y viola el CHECK")
	assert.Contains(t, verr.Fields, "critical_stock_level")
	huge := product("P3", user.ID)
	huge.CriticalStockLevel = decimal.RequireFromString("123456789012.5")
	assert.ErrorIs(t, products.Create(ctx, huge), domain.ErrInvalidInput)

	month := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	cost := &entity.ProductCost{ID: uuid.NewString(), ProductID: p.ID, Month: month, UnitCost: decimal.NewFromInt(4),
		CreatedBy: user.ID, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
	require.NoError(t, costs.Create(ctx, cost))

	orphan := *cost
	orphan.ID, orphan.ProductID = uuid.NewString(), uuid.NewString()
	assert.ErrorIs(t, costs.Create(ctx, &orphan), domain.ErrProductNotFound)

	err = products.Delete(ctx, p.ID)
	var dep *domain.DependentsError
	require.ErrorAs(t, err, &dep)
	assert.Equal(t, usecase.ProductCostsFKey, dep.Constraint)

	list, err := costs.List(ctx, repository.ProductCostFilter{ProductID: p.ID, Month: &month})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "P1", list[0].ProductCode)
	assert.True(t, list[0].Month.Equal(month))

	limit := decimal.NewFromInt(500)
	c := &entity.Customer{ID: uuid.NewString(), Name: "Acme", Code: "C100", TelephoneNumber: "1",
		BalanceRiskLimit: &limit, CreatedBy: user.ID, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
	require.NoError(t, customers.Create(ctx, c))
	risky, err := customers.ListWithRiskLimit(ctx)
	require.NoError(t, err)
	require.Len(t, risky, 1)
	assert.True(t, limit.Equal(*risky[0].BalanceRiskLimit))
	assert.Nil(t, risky[0].PaymentTermsLimit)

	summaries, err := NewAnalyticsRepository(pool).ProductCostSummaries(ctx, repository.ProductFilter{Search: "widget"})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].CostEntries)
	require.NotNil(t, summaries[0].LatestCost)
	assert.True(t, decimal.NewFromInt(4).Equal(*summaries[0].LatestCost))
}

func TestIntegration_TxRunnerRollback(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	user := seedUser(t, pool)
	runner := NewTxRunner(pool)
	boom := errors.New("boom")

	err := runner.Run(ctx, func(ctx context.Context, repos usecase.TxRepos) error {
		require.NoError(t, repos.Products.Create(ctx, product("P9", user.ID)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := NewAnalyticsRepository(pool).CountProducts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	err = runner.Run(ctx, func(ctx context.Context, repos usecase.TxRepos) error {
		return repos.Products.Create(ctx, product("P9", user.ID))
	})
	require.NoError(t, err)
	n, err = NewAnalyticsRepository(pool).CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
