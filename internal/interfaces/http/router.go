package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	appanalytics "github.com/jhoicas/costtrack-api/internal/application/analytics"
	"github.com/jhoicas/costtrack-api/internal/application/auth"
	"github.com/jhoicas/costtrack-api/internal/application/usecase"
	"github.com/jhoicas/costtrack-api/internal/domain/access"
	"github.com/jhoicas/costtrack-api/internal/infrastructure/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC        *auth.AuthUseCase
	Resolver      IdentityResolver
	ProductUC     *usecase.ProductUseCase
	CustomerUC    *usecase.CustomerUseCase
	ProductCostUC *usecase.ProductCostUseCase
	DashboardUC   *appanalytics.DashboardUseCase
	ReportUC      *appanalytics.ReportUseCase
	Metrics       *metrics.Metrics // nil: sin /metrics ni contadores de auth
	ServiceName   string
}

// Router registra /health, /metrics y las rutas de la API.
// Cada ruta de /api (salvo login) pasa por AccessControl con su par recurso/acción.
func Router(app *fiber.App, deps RouterDeps) {
	var observer AuthObserver
	if deps.Metrics != nil {
		observer = deps.Metrics
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}
	ac := NewAccessControl(deps.Resolver, observer)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})

	api := app.Group("/api")

	// Auth
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Get("/me", ac.Authenticated()(authHandler.Me))
	authGroup.Get("/permissions", ac.Authenticated()(authHandler.Permissions))

	// Products
	can := ac.Protect
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Get("", can(access.ResourceProducts, access.ActionRead)(productHandler.List))
	products.Get("/low-stock", can(access.ResourceProducts, access.ActionRead)(productHandler.LowStock))
	products.Get("/:id", can(access.ResourceProducts, access.ActionRead)(productHandler.GetByID))
	products.Post("", can(access.ResourceProducts, access.ActionCreate)(productHandler.Create))
	products.Put("/:id", can(access.ResourceProducts, access.ActionUpdate)(productHandler.Update))
	products.Delete("/:id", can(access.ResourceProducts, access.ActionDelete)(productHandler.Delete))

	// Customers
	customers := api.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers.Get("", can(access.ResourceCustomers, access.ActionRead)(customerHandler.List))
	customers.Get("/credit-risk", can(access.ResourceCustomers, access.ActionRead)(customerHandler.CreditRisk))
	customers.Get("/:id", can(access.ResourceCustomers, access.ActionRead)(customerHandler.GetByID))
	customers.Post("", can(access.ResourceCustomers, access.ActionCreate)(customerHandler.Create))
	customers.Put("/:id", can(access.ResourceCustomers, access.ActionUpdate)(customerHandler.Update))
	customers.Delete("/:id", can(access.ResourceCustomers, access.ActionDelete)(customerHandler.Delete))

	// Product costs
	costs := api.Group("/product-costs")
	costHandler := NewProductCostHandler(deps.ProductCostUC, deps.ReportUC)
	costs.Get("", can(access.ResourceCosts, access.ActionRead)(costHandler.List))
	costs.Get("/history/:productId", can(access.ResourceCosts, access.ActionRead)(costHandler.History))
	costs.Get("/:id", can(access.ResourceCosts, access.ActionRead)(costHandler.GetByID))
	costs.Post("", can(access.ResourceCosts, access.ActionCreate)(costHandler.Create))
	costs.Put("/:id", can(access.ResourceCosts, access.ActionUpdate)(costHandler.Update))
	costs.Delete("/:id", can(access.ResourceCosts, access.ActionDelete)(costHandler.Delete))

	// Dashboard
	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	api.Get("/dashboard/metrics", can(access.ResourceDashboard, access.ActionRead)(dashboardHandler.GetMetrics))

	// Reports
	reports := api.Group("/reports")
	reportHandler := NewReportHandler(deps.ReportUC)
	reports.Get("/costs", can(access.ResourceReports, access.ActionRead)(reportHandler.Costs))
	reports.Get("/products", can(access.ResourceReports, access.ActionRead)(reportHandler.Products))
	reports.Get("/customers", can(access.ResourceReports, access.ActionRead)(reportHandler.Customers))
}
