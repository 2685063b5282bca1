package repository

import (
	"context"

	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
)

// ManufacturingRepository puerto hacia órdenes de producción y sus etapas.
type ManufacturingRepository interface {
	GetOrder(ctx context.Context, id string) (*entity.ManufacturingOrder, error)
	UpdateOrder(ctx context.Context, order *entity.ManufacturingOrder) (*entity.ManufacturingOrder, error)
	ListProcesses(ctx context.Context, orderID string) ([]entity.Process, error)
	UpdateProcess(ctx context.Context, process *entity.Process) (*entity.Process, error)
}
