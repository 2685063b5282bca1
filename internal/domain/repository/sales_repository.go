package repository

import (
	"context"

	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
)

// SalesRepository puerto hacia órdenes de venta y órdenes de despacho.
type SalesRepository interface {
	GetSalesOrder(ctx context.Context, id string) (*entity.SalesOrder, error)
	UpdateSalesOrderStatus(ctx context.Context, id string, s status.State) error
	CreateDeliveryOrder(ctx context.Context, soID string, s status.State) (*entity.DeliveryOrder, error)
}
