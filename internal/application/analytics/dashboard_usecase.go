// Package analytics contiene los casos de uso de lectura: dashboard, historial de costos y reportes.
// Solo devuelve datos; no genera archivos ni gráficos.
package analytics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/costtrack-api/internal/application/dto"
	"github.com/jhoicas/costtrack-api/internal/application/usecase"
	"github.com/jhoicas/costtrack-api/internal/domain/entity"
	"github.com/jhoicas/costtrack-api/internal/domain/repository"
)

const (
	recentCostWindow = 30 * 24 * time.Hour
	recentCostLimit  = 10
)

// DashboardUseCase arma los KPIs del dashboard.
type DashboardUseCase struct {
	analyticsRepo repository.AnalyticsRepository
	opts          usecase.Options
	now           func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(analyticsRepo repository.AnalyticsRepository, opts usecase.Options) *DashboardUseCase {
	return &DashboardUseCase{analyticsRepo: analyticsRepo, opts: opts, now: time.Now}
}

// GetMetrics ejecuta los conteos en paralelo; el primer error cancela el resto.
// products_low_stock queda en 0: no hay seguimiento de stock actual.
func (uc *DashboardUseCase) GetMetrics(ctx context.Context) (*dto.DashboardMetricsDTO, error) {
	var out dto.DashboardMetricsDTO
	var recent []*entity.ProductCost
	since := uc.now().Add(-recentCostWindow)

	err := usecase.Read(ctx, uc.opts, func(ctx context.Context) error {
		g, ctx := errgroup.WithContext(ctx)
		count := func(name string, dst *int, fn func(context.Context) (int, error)) {
			g.Go(func() error {
				n, err := fn(ctx)
				if err != nil {
					return fmt.Errorf("dashboard: %s: %w", name, err)
				}
				*dst = n
				return nil
			})
		}
		count("productos", &out.TotalProducts, uc.analyticsRepo.CountProducts)
		count("clientes", &out.TotalCustomers, uc.analyticsRepo.CountCustomers)
		count("categorías", &out.TotalCategories, uc.analyticsRepo.CountCategories)
		count("costos", &out.TotalCostEntries, uc.analyticsRepo.CountCostEntries)
		count("clientes en riesgo", &out.CustomersAtRisk, uc.analyticsRepo.CountCustomersWithRiskLimit)
		g.Go(func() (err error) {
			recent, err = uc.analyticsRepo.RecentCosts(ctx, since, recentCostLimit)
			if err != nil {
				return fmt.Errorf("dashboard: costos recientes: %w", err)
			}
			return nil
		})
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}
	out.RecentCostUpdates = usecase.ProductCostResponses(recent)
	return &out, nil
}
