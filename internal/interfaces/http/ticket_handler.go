package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/scm-fulfillment/internal/application/dto"
	"github.com/jhoicas/scm-fulfillment/internal/application/ticket"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
	"github.com/jhoicas/scm-fulfillment/pkg/logger"
)

// TicketHandler confirmación, ejecución y cancelación de tickets de bodega.
type TicketHandler struct {
	uc  *ticket.UseCase
	log *logger.Logger
}

// NewTicketHandler construye el handler.
func NewTicketHandler(uc *ticket.UseCase, log *logger.Logger) *TicketHandler {
	return &TicketHandler{uc: uc, log: log}
}

// Confirm godoc
// @Summary      Confirmar ticket
// @Tags         tickets
// @Security     Bearer
// @Produce      json
// @Param        type  path  string  true  "issue_ticket | receive_ticket | transfer_ticket"
// @Param        id    path  string  true  "id del ticket"
// @Success      200   {object}  dto.TicketResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/tickets/{type}/{id}/confirm [post]
func (h *TicketHandler) Confirm(c *fiber.Ctx) error {
	t, ok := documentType(c, status.DocumentType.IsTicket)
	if !ok {
		return badRequest(c, "INVALID_TYPE", "tipo de ticket desconocido")
	}
	tk, err := h.uc.ConfirmByID(requestContext(c), t, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewTicketResponse(tk))
}

// Cancel godoc
// @Summary      Cancelar traslado
// @Description  Solo los traslados aún sin confirmar se pueden cancelar.
// @Tags         tickets
// @Security     Bearer
// @Produce      json
// @Param        type  path  string  true  "transfer_ticket"
// @Param        id    path  string  true  "id del ticket"
// @Success      200   {object}  dto.TicketResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/tickets/{type}/{id}/cancel [post]
func (h *TicketHandler) Cancel(c *fiber.Ctx) error {
	t, ok := documentType(c, status.DocumentType.IsTicket)
	if !ok {
		return badRequest(c, "INVALID_TYPE", "tipo de ticket desconocido")
	}
	tk, err := h.uc.CancelByID(requestContext(c), t, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewTicketResponse(tk))
}

// Execute godoc
// @Summary      Ejecutar ticket
// @Description  Completa el ticket y dispara sus efectos (cascada de despacho, inventario, cierre del traslado).
//
//	Responde 200 aunque algún efecto falle; en ese caso partial=true.
//
// @Tags         tickets
// @Security     Bearer
// @Produce      json
// @Param        type  path  string  true  "issue_ticket | receive_ticket | transfer_ticket"
// @Param        id    path  string  true  "id del ticket"
// @Success      200   {object}  dto.ExecuteResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/tickets/{type}/{id}/execute [post]
func (h *TicketHandler) Execute(c *fiber.Ctx) error {
	t, ok := documentType(c, status.DocumentType.IsTicket)
	if !ok {
		return badRequest(c, "INVALID_TYPE", "tipo de ticket desconocido")
	}
	out, err := h.uc.ExecuteByID(requestContext(c), t, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewExecuteResponse(out))
}
