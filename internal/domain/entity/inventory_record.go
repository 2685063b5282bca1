package entity

import "github.com/shopspring/decimal"

// InventoryRecord fila de stock por (bodega, item): existencia física y cantidad reservada.
type InventoryRecord struct {
	WarehouseID      string
	ItemID           string
	Quantity         decimal.Decimal
	OnDemandQuantity decimal.Decimal
}

// Tipos de mutación sobre una fila de inventario.
const (
	MutationQuantity = "quantity"
	MutationOnDemand = "on_demand"
)

// StockMutation mutación relativa sobre una fila de inventario.
// MutationID es determinístico por ticket/línea/tipo para que el servidor pueda deduplicar.
type StockMutation struct {
	MutationID  string
	WarehouseID string
	ItemID      string
	Kind        string
	Amount      decimal.Decimal
}

// Key devuelve la clave de serialización de la fila afectada.
func (m StockMutation) Key() string {
	return m.WarehouseID + ":" + m.ItemID
}
