package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/scm-fulfillment/internal/application/dto"
	"github.com/jhoicas/scm-fulfillment/internal/application/inventory"
	"github.com/jhoicas/scm-fulfillment/pkg/logger"
)

// InventoryHandler lectura de filas de inventario (protegido).
type InventoryHandler struct {
	ledger *inventory.LedgerUseCase
	log    *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.LedgerUseCase, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, log: log}
}

// Get godoc
// @Summary      Fila de inventario
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouseId  path  string  true  "bodega"
// @Param        itemId       path  string  true  "item"
// @Success      200  {object}  dto.InventoryRecordResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{warehouseId}/{itemId} [get]
func (h *InventoryHandler) Get(c *fiber.Ctx) error {
	rec, err := h.ledger.Record(requestContext(c), c.Params("warehouseId"), c.Params("itemId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewInventoryRecordResponse(rec))
}
