package repository

import (
	"context"

	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
)

// TicketRepository puerto hacia los tickets de bodega remotos.
// Update es reemplazo por valor: siempre se envía el ticket completo.
type TicketRepository interface {
	Get(ctx context.Context, ticketType status.DocumentType, id string) (*entity.Ticket, error)
	Update(ctx context.Context, ticket *entity.Ticket) (*entity.Ticket, error)
	Create(ctx context.Context, ticket *entity.Ticket) (*entity.Ticket, error)
}
