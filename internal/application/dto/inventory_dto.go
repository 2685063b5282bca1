package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
)

// InventoryRecordResponse fila de inventario (bodega, item).
type InventoryRecordResponse struct {
	WarehouseID      string          `json:"warehouse_id"`
	ItemID           string          `json:"item_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	OnDemandQuantity decimal.Decimal `json:"on_demand_quantity"`
}

func NewInventoryRecordResponse(r *entity.InventoryRecord) InventoryRecordResponse {
	return InventoryRecordResponse{
		WarehouseID:      r.WarehouseID,
		ItemID:           r.ItemID,
		Quantity:         r.Quantity,
		OnDemandQuantity: r.OnDemandQuantity,
	}
}
