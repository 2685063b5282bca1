package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/scm-fulfillment/internal/application/dto"
	"github.com/jhoicas/scm-fulfillment/internal/application/fulfillment"
	"github.com/jhoicas/scm-fulfillment/pkg/logger"
)

// FulfillmentHandler bitácora y reintento de la cascada de despacho.
type FulfillmentHandler struct {
	orch *fulfillment.Orchestrator
	log  *logger.Logger
}

func NewFulfillmentHandler(orch *fulfillment.Orchestrator, log *logger.Logger) *FulfillmentHandler {
	return &FulfillmentHandler{orch: orch, log: log}
}

// Get godoc
// @Summary      Bitácora de despacho de un ticket de salida
// @Tags         fulfillments
// @Security     Bearer
// @Produce      json
// @Param        ticketId  path  string  true  "id del ticket de salida"
// @Success      200  {object}  dto.FulfillmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/fulfillments/{ticketId} [get]
func (h *FulfillmentHandler) Get(c *fiber.Ctx) error {
	res, err := h.orch.Run(requestContext(c), c.Params("ticketId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewFulfillmentResponse(res))
}

// Retry godoc
// @Summary      Reintentar una cascada fallida
// @Description  Reanuda la corrida: los pasos ya aplicados no se repiten.
// @Tags         fulfillments
// @Security     Bearer
// @Produce      json
// @Param        ticketId  path  string  true  "id del ticket de salida"
// @Success      200  {object}  dto.FulfillmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/fulfillments/{ticketId}/retry [post]
func (h *FulfillmentHandler) Retry(c *fiber.Ctx) error {
	res, err := h.orch.Retry(requestContext(c), c.Params("ticketId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewFulfillmentResponse(res))
}
