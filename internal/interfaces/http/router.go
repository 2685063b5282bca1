package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/scm-fulfillment/internal/application/document"
	"github.com/jhoicas/scm-fulfillment/internal/application/fulfillment"
	"github.com/jhoicas/scm-fulfillment/internal/application/inventory"
	"github.com/jhoicas/scm-fulfillment/internal/application/ticket"
	"github.com/jhoicas/scm-fulfillment/pkg/logger"
)

// HTTPMetrics registra cada petición atendida. Lo implementa infrastructure/metrics.
type HTTPMetrics interface {
	HTTPRequest(method, route string, status int, d time.Duration)
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Documents   *document.UseCase
	Tickets     *ticket.UseCase
	Fulfillment *fulfillment.Orchestrator
	Ledger      *inventory.LedgerUseCase
	Metrics     HTTPMetrics // opcional
	Log         *logger.Logger
	JWTSecret   string
	JWTIssuer   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("http")
	if deps.Metrics != nil {
		app.Use(requestMetrics(deps.Metrics))
	}

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	api.Get("/registry/:type", Registry)

	// Documentos comerciales: compras y ventas
	documents := api.Group("/documents", RequireRole(RoleAdmin, RoleCompras, RoleVendedor))
	documentHandler := NewDocumentHandler(deps.Documents, log)
	documents.Post("/:type/:id/transition", documentHandler.Transition)

	// Tickets de bodega
	tickets := api.Group("/tickets", RequireRole(RoleAdmin, RoleBodeguero))
	ticketHandler := NewTicketHandler(deps.Tickets, log)
	tickets.Post("/:type/:id/confirm", ticketHandler.Confirm)
	tickets.Post("/:type/:id/execute", ticketHandler.Execute)
	tickets.Post("/:type/:id/cancel", ticketHandler.Cancel)

	// Bitácora de despacho
	fulfillments := api.Group("/fulfillments")
	fulfillmentHandler := NewFulfillmentHandler(deps.Fulfillment, log)
	fulfillments.Get("/:ticketId", fulfillmentHandler.Get)
	fulfillments.Post("/:ticketId/retry", RequireRole(RoleAdmin, RoleBodeguero), fulfillmentHandler.Retry)

	// Inventario (solo lectura)
	inventoryHandler := NewInventoryHandler(deps.Ledger, log)
	api.Get("/inventory/:warehouseId/:itemId", inventoryHandler.Get)
}

func requestMetrics(m HTTPMetrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		m.HTTPRequest(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}
