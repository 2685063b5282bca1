package repository

import (
	"context"
	"time"

	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
)

// FulfillmentLogRepository persiste la bitácora de orquestación por ticket de salida.
type FulfillmentLogRepository interface {
	// Begin registra una corrida nueva. Devuelve domain.ErrFulfillmentInProgress
	// si ya existe una corrida para el mismo ticket.
	Begin(ctx context.Context, run *entity.FulfillmentRun) error
	// Get devuelve la corrida del ticket o domain.ErrNotFound.
	Get(ctx context.Context, ticketID string) (*entity.FulfillmentRun, error)
	// Resume pasa atómicamente a "started" una corrida fallida, o una en curso cuyo UpdatedAt
	// es anterior a staleBefore (su dueño murió o no pudo guardar), y la devuelve.
	// staleBefore cero desactiva la toma de corridas abandonadas.
	// Corrida en curso: domain.ErrFulfillmentInProgress; terminada: domain.ErrAlreadyFulfilled.
	Resume(ctx context.Context, ticketID string, staleBefore time.Time) (*entity.FulfillmentRun, error)
	// Save reemplaza estado y pasos de la corrida.
	Save(ctx context.Context, run *entity.FulfillmentRun) error
}
