package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/costtrack-api/internal/domain/costing"
)

// RiskStatus clasificación de un cliente en el reporte.
const (
	RiskMonitored = "monitored"
	RiskSafe      = "safe"
)

// Tendencias de costo.
const (
	TrendIncreasing = string(costing.Increasing)
	TrendDecreasing = string(costing.Decreasing)
	TrendStable     = string(costing.Stable)
)

// ProductReportRow fila de GET /api/reports/products.
type ProductReportRow struct {
	ProductResponse
	CostEntriesCount int              `json:"cost_entries_count"`
	LatestCostMonth  *string          `json:"latest_cost_month"`
	LatestCost       *decimal.Decimal `json:"latest_cost"`
}

// CustomerReportRow fila de GET /api/reports/customers.
type CustomerReportRow struct {
	CustomerResponse
	RiskStatus string `json:"risk_status"`
}

// CostReportQuery filtros de GET /api/reports/costs.
type CostReportQuery struct {
	StartMonth string `query:"start_month"`
	EndMonth   string `query:"end_month"`
}
