package dto

// DashboardMetricsDTO respuesta de GET /api/dashboard/metrics.
type DashboardMetricsDTO struct {
	TotalProducts     int                   `json:"total_products"`
	TotalCustomers    int                   `json:"total_customers"`
	TotalCategories   int                   `json:"total_categories"`
	TotalCostEntries  int                   `json:"total_cost_entries"`
	RecentCostUpdates []ProductCostResponse `json:"recent_cost_updates"`
	ProductsLowStock  int                   `json:"products_low_stock"`
	CustomersAtRisk   int                   `json:"customers_at_risk"`
}
