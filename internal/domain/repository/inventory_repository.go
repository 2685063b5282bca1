package repository

import (
	"context"

	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
)

// InventoryRepository puerto hacia el libro de inventario remoto.
// Las mutaciones son relativas; la serialización por fila la hace la capa de aplicación.
type InventoryRepository interface {
	Get(ctx context.Context, warehouseID, itemID string) (*entity.InventoryRecord, error)
	DecreaseQuantity(ctx context.Context, m entity.StockMutation) error
	DecreaseOnDemand(ctx context.Context, m entity.StockMutation) error
	IncreaseQuantity(ctx context.Context, m entity.StockMutation) error
}
