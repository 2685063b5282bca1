package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/scm-fulfillment/internal/application/document"
	"github.com/jhoicas/scm-fulfillment/internal/application/dto"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
	"github.com/jhoicas/scm-fulfillment/pkg/logger"
)

// DocumentHandler transiciones de documentos comerciales (RFQ, cotización, PO, SO).
type DocumentHandler struct {
	uc  *document.UseCase
	log *logger.Logger
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(uc *document.UseCase, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{uc: uc, log: log}
}

// Transition godoc
// @Summary      Cambiar el estado de un documento comercial
// @Description  Valida la transición contra el registro de estados. Aceptar o rechazar una cotización
//
//	propaga el resultado al RFQ de origen (best effort).
//
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        type  path  string                 true  "rfq | quotation | purchase_order | sales_order"
// @Param        id    path  string                 true  "id del documento"
// @Param        body  body  dto.TransitionRequest  true  "target_state"
// @Success      200   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/documents/{type}/{id}/transition [post]
func (h *DocumentHandler) Transition(c *fiber.Ctx) error {
	docType, ok := documentType(c, status.DocumentType.IsCommercial)
	if !ok {
		return badRequest(c, "INVALID_TYPE", "tipo de documento desconocido")
	}
	var in dto.TransitionRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, h.log, err)
	}
	target, err := status.Parse(docType, in.TargetState)
	if err != nil {
		return writeError(c, h.log, err)
	}
	doc, err := h.uc.TransitionByID(requestContext(c), docType, c.Params("id"), target, GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewDocumentResponse(doc))
}
