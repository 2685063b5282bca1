package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/scm-fulfillment/internal/application/document"
	"github.com/jhoicas/scm-fulfillment/internal/application/dto"
	"github.com/jhoicas/scm-fulfillment/internal/application/fulfillment"
	"github.com/jhoicas/scm-fulfillment/internal/application/inventory"
	"github.com/jhoicas/scm-fulfillment/internal/application/ticket"
	"github.com/jhoicas/scm-fulfillment/internal/domain/repository"
	"github.com/jhoicas/scm-fulfillment/internal/infrastructure/memory"
	"github.com/jhoicas/scm-fulfillment/internal/infrastructure/metrics"
	"github.com/jhoicas/scm-fulfillment/internal/infrastructure/postgres"
	"github.com/jhoicas/scm-fulfillment/internal/infrastructure/redislock"
	"github.com/jhoicas/scm-fulfillment/internal/infrastructure/scmapi"
	httpRouter "github.com/jhoicas/scm-fulfillment/internal/interfaces/http"
	"github.com/jhoicas/scm-fulfillment/pkg/config"
	"github.com/jhoicas/scm-fulfillment/pkg/logger"
)

// remote agrupa los repositorios de la API SCM (HTTP o memoria).
type remote struct {
	documents     repository.DocumentRepository
	tickets       repository.TicketRepository
	manufacturing repository.ManufacturingRepository
	sales         repository.SalesRepository
	inventory     repository.InventoryRepository
}

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
		Str("scm_api", cfg.SCMAPI.Driver).
		Str("fulfillment_log", cfg.Fulfillment.LogDriver).
		Msg("iniciando aplicación")

	// La API remota espera cantidades numéricas, no strings.
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()
	m := metrics.New("scm")
	checks := map[string]func() string{}

	// API SCM remota
	var api remote
	switch cfg.SCMAPI.Driver {
	case "memory":
		store := memory.NewStore()
		api = remote{store.Documents(), store.Tickets(), store.Manufacturing(), store.Sales(), store.Inventory()}
		log.Warn().Msg("API SCM en memoria: solo para desarrollo")
	default:
		client := scmapi.New(scmapi.Config{
			BaseURL:         cfg.SCMAPI.BaseURL,
			Token:           cfg.SCMAPI.Token,
			Timeout:         cfg.SCMAPI.Timeout,
			BreakerFailures: cfg.SCMAPI.BreakerFailures,
			BreakerTimeout:  cfg.SCMAPI.BreakerTimeout,
		}, m, log)
		api = remote{client.Documents(), client.Tickets(), client.Manufacturing(), client.Sales(), client.Inventory()}
		checks["scm_api_breaker"] = client.BreakerState
	}

	// Bitácora de orquestación
	var runs repository.FulfillmentLogRepository
	switch cfg.Fulfillment.LogDriver {
	case "memory":
		runs = memory.NewFulfillmentLog()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Str("db", postgres.Target(cfg.DB)).Msg("conectar a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("aplicar migraciones")
		}
		runs = postgres.NewFulfillmentLogRepository(pool, postgres.NewTxRunner(pool))
		checks["postgres"] = func() string {
			pctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := pool.Ping(pctx); err != nil {
				return "down"
			}
			return "ok"
		}
	}

	// Lock por fila de inventario: Redis si hay varias réplicas, en proceso si no.
	var locker inventory.KeyLocker = inventory.NewLocalLocker()
	if cfg.Redis.Addr != "" {
		rdb, err := redislock.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conectar a Redis")
		}
		defer rdb.Close()
		locker = redislock.New(rdb, cfg.Redis, log)
	}

	ledger := inventory.NewLedgerUseCase(api.inventory, locker, m, log, cfg.Fulfillment.MaxParallel)
	orch := fulfillment.NewOrchestrator(api.tickets, api.manufacturing, api.sales, ledger, runs, m, log,
		fulfillment.WithStaleAfter(cfg.Fulfillment.StaleAfter))
	ticketUC := ticket.NewUseCase(api.tickets, orch, ledger, m, log)
	documentUC := document.NewUseCase(api.documents, m, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "SCM Fulfillment API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		resp := dto.HealthResponse{Status: "ok", Service: cfg.App.Name, Checks: map[string]string{}}
		for name, check := range checks {
			state := check()
			resp.Checks[name] = state
			if state == "down" || state == "open" {
				resp.Status = "degraded"
			}
		}
		return c.JSON(resp)
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Documents:   documentUC,
		Tickets:     ticketUC,
		Fulfillment: orch,
		Ledger:      ledger,
		Metrics:     m,
		Log:         log,
		JWTSecret:   cfg.JWT.Secret,
		JWTIssuer:   cfg.JWT.Issuer,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
