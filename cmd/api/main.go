package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	appanalytics "github.com/jhoicas/costtrack-api/internal/application/analytics"
	"github.com/jhoicas/costtrack-api/internal/application/auth"
	"github.com/jhoicas/costtrack-api/internal/application/usecase"
	"github.com/jhoicas/costtrack-api/internal/application/validation"
	"github.com/jhoicas/costtrack-api/internal/infrastructure/metrics"
	"github.com/jhoicas/costtrack-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/costtrack-api/internal/interfaces/http"
	"github.com/jhoicas/costtrack-api/pkg/config"
	"github.com/jhoicas/costtrack-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	applied, err := postgres.Migrate(ctx, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}
	log.Info().Strs("applied", applied).Msg("esquema al día")

	m := metrics.New(nil)
	opts := usecase.Options{
		OpTimeout:    cfg.DB.OpTimeout,
		MaxRetries:   cfg.DB.MaxRetries,
		RetryBackoff: cfg.DB.RetryBackoff,
		Recorder:     m,
	}
	jwtCfg := auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}

	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	costRepo := postgres.NewProductCostRepository(pool)
	analyticsRepo := postgres.NewAnalyticsRepository(pool)
	txRunner := postgres.NewTxRunner(pool)
	val := validation.New()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(m))
	app.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: cfg.HTTP.DocsFile,
		Path:     "docs",
		Title:    cfg.App.Name,
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:        auth.NewAuthUseCase(userRepo, jwtCfg),
		Resolver:      auth.NewIdentityResolver(userRepo, jwtCfg),
		ProductUC:     usecase.NewProductUseCase(productRepo, txRunner, val, opts),
		CustomerUC:    usecase.NewCustomerUseCase(customerRepo, txRunner, val, opts),
		ProductCostUC: usecase.NewProductCostUseCase(costRepo, txRunner, val, opts),
		DashboardUC:   appanalytics.NewDashboardUseCase(analyticsRepo, opts),
		ReportUC:      appanalytics.NewReportUseCase(productRepo, customerRepo, costRepo, analyticsRepo, opts),
		Metrics:       m,
		ServiceName:   cfg.App.Name,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
