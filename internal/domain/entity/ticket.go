package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/scm-fulfillment/internal/domain"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
)

// Origin discrimina de dónde viene un ticket (issueType / receiveType en el cable).
type Origin string

// Orígenes conocidos. Son literales del contrato remoto.
const (
	OriginManufacturing Origin = "Sản xuất"
	OriginTransfer      Origin = "Chuyển kho"
	OriginSales         Origin = "Bán hàng"
)

// TicketDetail línea de un ticket de bodega.
type TicketDetail struct {
	ItemID         string
	Quantity       decimal.Decimal  // cantidad solicitada
	ActualQuantity *decimal.Decimal // cantidad real confirmada; nil si aún no se confirma
	Note           string
}

// EffectiveQuantity devuelve la cantidad real si fue confirmada; si no, la solicitada.
func (d TicketDetail) EffectiveQuantity() decimal.Decimal {
	if d.ActualQuantity != nil {
		return *d.ActualQuantity
	}
	return d.Quantity
}

// Ticket representa un ticket de salida, entrada o traslado de bodega.
type Ticket struct {
	ID     string
	Code   string
	Type   status.DocumentType
	Status status.State
	// WarehouseID aplica a salida/entrada; From/To a traslados.
	WarehouseID     string
	FromWarehouseID string
	ToWarehouseID   string
	// Origin es issueType en tickets de salida y receiveType en tickets de entrada.
	Origin        Origin
	ReferenceID   string
	ReferenceCode string
	IssueDate     *time.Time
	ReceiveDate   *time.Time
	Details       []TicketDetail
	CreatedBy     string
	CreatedOn     time.Time
	LastUpdatedOn time.Time
	// Extra conserva los campos del cable que este servicio no interpreta (reemplazo por valor).
	Extra map[string]json.RawMessage
}

// Validate verifica las invariantes del ticket (cantidades no negativas, bodegas distintas en traslados).
func (t *Ticket) Validate() error {
	if !t.Type.IsTicket() {
		return fmt.Errorf("%w: tipo %q no es un ticket", domain.ErrInvalidInput, t.Type)
	}
	if t.ID == "" {
		return fmt.Errorf("%w: ticket sin id", domain.ErrInvalidInput)
	}
	switch t.Type {
	case status.TypeTransferTicket:
		if t.FromWarehouseID == "" || t.ToWarehouseID == "" {
			return fmt.Errorf("%w: traslado sin bodega origen o destino", domain.ErrInvalidInput)
		}
		if t.FromWarehouseID == t.ToWarehouseID {
			return fmt.Errorf("%w: bodega origen y destino deben ser distintas", domain.ErrInvalidInput)
		}
	default:
		if t.WarehouseID == "" {
			return fmt.Errorf("%w: ticket sin bodega", domain.ErrInvalidInput)
		}
	}
	for i, d := range t.Details {
		if d.ItemID == "" {
			return fmt.Errorf("%w: línea %d sin item", domain.ErrInvalidInput, i)
		}
		if d.Quantity.IsNegative() || (d.ActualQuantity != nil && d.ActualQuantity.IsNegative()) {
			return fmt.Errorf("%w: línea %d con cantidad negativa", domain.ErrInvalidInput, i)
		}
	}
	return nil
}

// Clone devuelve una copia profunda (las líneas no se comparten).
func (t *Ticket) Clone() *Ticket {
	c := *t
	c.Details = make([]TicketDetail, len(t.Details))
	for i, d := range t.Details {
		c.Details[i] = d
		if d.ActualQuantity != nil {
			q := *d.ActualQuantity
			c.Details[i].ActualQuantity = &q
		}
	}
	if t.IssueDate != nil {
		v := *t.IssueDate
		c.IssueDate = &v
	}
	if t.ReceiveDate != nil {
		v := *t.ReceiveDate
		c.ReceiveDate = &v
	}
	if t.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(t.Extra))
		for k, v := range t.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}
