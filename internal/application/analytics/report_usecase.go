package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/costtrack-api/internal/application/dto"
	"github.com/jhoicas/costtrack-api/internal/application/usecase"
	"github.com/jhoicas/costtrack-api/internal/application/validation"
	"github.com/jhoicas/costtrack-api/internal/domain"
	"github.com/jhoicas/costtrack-api/internal/domain/costing"
	"github.com/jhoicas/costtrack-api/internal/domain/entity"
	"github.com/jhoicas/costtrack-api/internal/domain/repository"
)

// ReportUseCase historial de costos y reportes de costos, productos y clientes.
type ReportUseCase struct {
	products  repository.ProductRepository
	customers repository.CustomerRepository
	costs     repository.ProductCostRepository
	analytics repository.AnalyticsRepository
	opts      usecase.Options
	now       func() time.Time
}

// NewReportUseCase construye el caso de uso.
func NewReportUseCase(
	products repository.ProductRepository,
	customers repository.CustomerRepository,
	costs repository.ProductCostRepository,
	analytics repository.AnalyticsRepository,
	opts usecase.Options,
) *ReportUseCase {
	return &ReportUseCase{products: products, customers: customers, costs: costs, analytics: analytics, opts: opts, now: time.Now}
}

// withTrend completa la variación de current respecto a previous.
func withTrend(row *dto.CostTrendResponse, current decimal.Decimal, previous *decimal.Decimal) {
	if previous == nil {
		return
	}
	prev := *previous
	v := costing.Compare(current, prev)
	trend := string(v.Trend)
	row.PreviousCost = &prev
	row.CostChange = &v.Change
	row.PercentageChange = v.Percentage
	row.Trend = &trend
}

// CostHistory devuelve los costos del producto del mes más reciente al más antiguo,
// cada uno comparado con el mes anterior disponible.
func (uc *ReportUseCase) CostHistory(ctx context.Context, productID string) ([]dto.CostTrendResponse, error) {
	var list []*entity.ProductCost
	err := usecase.Read(ctx, uc.opts, func(ctx context.Context) (err error) {
		list, err = uc.costs.List(ctx, repository.ProductCostFilter{ProductID: productID})
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.CostTrendResponse, len(list))
	for i, c := range list {
		out[i] = dto.CostTrendResponse{ProductCostResponse: *usecase.ToProductCostResponse(c)}
		if i+1 < len(list) {
			prev := list[i+1].UnitCost
			withTrend(&out[i], c.UnitCost, &prev)
		}
	}
	return out, nil
}

// CostReport lista los costos del rango (meses inclusivos) con la variación respecto al mes previo
// del mismo producto dentro del rango. Orden: mes desc, nombre de producto.
func (uc *ReportUseCase) CostReport(ctx context.Context, q dto.CostReportQuery) ([]dto.CostTrendResponse, dto.ListMetadata, error) {
	var f repository.ProductCostFilter
	fields := map[string]string{}
	if q.StartMonth != "" {
		if m, err := validation.ParseMonth(q.StartMonth); err == nil {
			f.From = &m
		} else {
			fields["start_month"] = "Valid month is required"
		}
	}
	if q.EndMonth != "" {
		if m, err := validation.ParseMonth(q.EndMonth); err == nil {
			f.To = &m
		} else {
			fields["end_month"] = "Valid month is required"
		}
	}
	if len(fields) > 0 {
		return nil, dto.ListMetadata{}, &domain.ValidationError{Fields: fields}
	}

	var (
		list     []*entity.ProductCost
		products []*entity.Product
	)
	err := usecase.Read(ctx, uc.opts, func(ctx context.Context) (err error) {
		if list, err = uc.costs.List(ctx, f); err != nil {
			return err
		}
		products, err = uc.products.List(ctx, repository.ProductFilter{})
		return err
	})
	if err != nil {
		return nil, dto.ListMetadata{}, err
	}
	byID := make(map[string]*entity.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	// previo por producto en orden cronológico
	chrono := make([]int, len(list))
	for i := range chrono {
		chrono[i] = i
	}
	sort.SliceStable(chrono, func(a, b int) bool {
		return list[chrono[a]].Month.Before(list[chrono[b]].Month)
	})
	previous := make(map[int]decimal.Decimal, len(list))
	last := map[string]decimal.Decimal{}
	for _, idx := range chrono {
		c := list[idx]
		if p, ok := last[c.ProductID]; ok {
			previous[idx] = p
		}
		last[c.ProductID] = c.UnitCost
	}

	out := make([]dto.CostTrendResponse, len(list))
	for i, c := range list {
		out[i] = dto.CostTrendResponse{ProductCostResponse: *usecase.ToProductCostResponse(c)}
		if p, ok := byID[c.ProductID]; ok {
			out[i].ProductCategory = p.Category
			out[i].Brand = p.Brand
		}
		if p, ok := previous[i]; ok {
			withTrend(&out[i], c.UnitCost, &p)
		}
	}
	return out, uc.meta(len(out)), nil
}

// ProductReport lista productos con el conteo de costos y el último costo registrado.
func (uc *ReportUseCase) ProductReport(ctx context.Context, q dto.ProductListQuery) ([]dto.ProductReportRow, dto.ListMetadata, error) {
	var rows []repository.ProductCostSummary
	err := usecase.Read(ctx, uc.opts, func(ctx context.Context) (err error) {
		rows, err = uc.analytics.ProductCostSummaries(ctx, repository.ProductFilter{Category: q.Category, Brand: q.Brand, Search: q.Search})
		return err
	})
	if err != nil {
		return nil, dto.ListMetadata{}, err
	}
	out := make([]dto.ProductReportRow, 0, len(rows))
	for _, r := range rows {
		row := dto.ProductReportRow{
			ProductResponse:  *usecase.ToProductResponse(r.Product),
			CostEntriesCount: r.CostEntries,
			LatestCost:       r.LatestCost,
		}
		if r.LatestCostMonth != nil {
			m := r.LatestCostMonth.Format(time.DateOnly)
			row.LatestCostMonth = &m
		}
		out = append(out, row)
	}
	return out, uc.meta(len(out)), nil
}

// CustomerReport lista clientes por nombre, marcados "monitored" si tienen límite de riesgo, "safe" si no.
func (uc *ReportUseCase) CustomerReport(ctx context.Context, q dto.CustomerListQuery) ([]dto.CustomerReportRow, dto.ListMetadata, error) {
	var list []*entity.Customer
	err := usecase.Read(ctx, uc.opts, func(ctx context.Context) (err error) {
		list, err = uc.customers.List(ctx, repository.CustomerFilter{SalesRep: q.SalesRep, Country: q.Country, Region: q.Region, Search: q.Search})
		return err
	})
	if err != nil {
		return nil, dto.ListMetadata{}, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	out := make([]dto.CustomerReportRow, 0, len(list))
	for _, c := range list {
		status := dto.RiskSafe
		if c.HasRiskLimit() {
			status = dto.RiskMonitored
		}
		out = append(out, dto.CustomerReportRow{CustomerResponse: *usecase.ToCustomerResponse(c), RiskStatus: status})
	}
	return out, uc.meta(len(out)), nil
}

func (uc *ReportUseCase) meta(n int) dto.ListMetadata {
	return dto.ListMetadata{TotalEntries: n, GeneratedAt: uc.now().UTC()}
}
