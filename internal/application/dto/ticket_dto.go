package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/scm-fulfillment/internal/application/inventory"
	"github.com/jhoicas/scm-fulfillment/internal/application/ticket"
	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
)

// TicketDetailDTO línea del ticket.
type TicketDetailDTO struct {
	ItemID         string           `json:"item_id"`
	Quantity       decimal.Decimal  `json:"quantity"`
	ActualQuantity *decimal.Decimal `json:"actual_quantity,omitempty"`
	Note           string           `json:"note,omitempty"`
}

// TicketResponse ticket de bodega.
type TicketResponse struct {
	ID              string            `json:"id"`
	Code            string            `json:"code,omitempty"`
	Type            string            `json:"type"`
	Status          string            `json:"status"`
	WarehouseID     string            `json:"warehouse_id,omitempty"`
	FromWarehouseID string            `json:"from_warehouse_id,omitempty"`
	ToWarehouseID   string            `json:"to_warehouse_id,omitempty"`
	Origin          string            `json:"origin,omitempty"`
	ReferenceID     string            `json:"reference_id,omitempty"`
	ReferenceCode   string            `json:"reference_code,omitempty"`
	IssueDate       *time.Time        `json:"issue_date,omitempty"`
	ReceiveDate     *time.Time        `json:"receive_date,omitempty"`
	Details         []TicketDetailDTO `json:"details"`
}

// NewTicketResponse mapea la entidad.
func NewTicketResponse(t *entity.Ticket) TicketResponse {
	out := TicketResponse{
		ID:              t.ID,
		Code:            t.Code,
		Type:            string(t.Type),
		Status:          string(t.Status),
		WarehouseID:     t.WarehouseID,
		FromWarehouseID: t.FromWarehouseID,
		ToWarehouseID:   t.ToWarehouseID,
		Origin:          string(t.Origin),
		ReferenceID:     t.ReferenceID,
		ReferenceCode:   t.ReferenceCode,
		IssueDate:       t.IssueDate,
		ReceiveDate:     t.ReceiveDate,
		Details:         make([]TicketDetailDTO, len(t.Details)),
	}
	for i, d := range t.Details {
		out.Details[i] = TicketDetailDTO{ItemID: d.ItemID, Quantity: d.Quantity, ActualQuantity: d.ActualQuantity, Note: d.Note}
	}
	return out
}

// MutationDTO mutación de inventario y su resultado.
type MutationDTO struct {
	MutationID  string          `json:"mutation_id"`
	WarehouseID string          `json:"warehouse_id"`
	ItemID      string          `json:"item_id"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Outcome     string          `json:"outcome"`
	Error       string          `json:"error,omitempty"`
}

func newMutationDTOs(results []inventory.MutationResult) []MutationDTO {
	if len(results) == 0 {
		return nil
	}
	out := make([]MutationDTO, len(results))
	for i, r := range results {
		out[i] = MutationDTO{
			MutationID:  r.Mutation.MutationID,
			WarehouseID: r.Mutation.WarehouseID,
			ItemID:      r.Mutation.ItemID,
			Kind:        r.Mutation.Kind,
			Amount:      r.Mutation.Amount,
			Outcome:     entity.StepOK,
		}
		if r.Err != nil {
			out[i].Outcome = entity.StepFailed
			out[i].Error = r.Err.Error()
		}
	}
	return out
}

// ExecuteResponse resultado de POST /api/tickets/:type/:id/execute.
// Partial=true cuando el ticket quedó ejecutado pero algún efecto falló.
type ExecuteResponse struct {
	Ticket      TicketResponse       `json:"ticket"`
	Issue       *TicketResponse      `json:"issue_ticket,omitempty"`
	Fulfillment *FulfillmentResponse `json:"fulfillment,omitempty"`
	Stock       []MutationDTO        `json:"stock,omitempty"`
	Partial     bool                 `json:"partial"`
}

// NewExecuteResponse mapea el resultado del caso de uso.
func NewExecuteResponse(o *ticket.Outcome) ExecuteResponse {
	out := ExecuteResponse{
		Ticket:  NewTicketResponse(o.Ticket),
		Stock:   newMutationDTOs(o.Stock),
		Partial: o.Partial(),
	}
	if o.Issue != nil {
		issue := NewTicketResponse(o.Issue)
		out.Issue = &issue
	}
	if o.Fulfillment != nil {
		f := NewFulfillmentResponse(o.Fulfillment)
		out.Fulfillment = &f
	}
	return out
}
