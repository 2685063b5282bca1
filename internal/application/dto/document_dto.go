package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
)

// TransitionRequest cuerpo de POST /api/documents/:type/:id/transition.
type TransitionRequest struct {
	TargetState string `json:"target_state" validate:"required,nfc_token,max=64"`
}

// DocumentItemDTO línea de un documento comercial.
type DocumentItemDTO struct {
	ItemID    string          `json:"item_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
}

// DocumentResponse documento comercial tras la transición.
type DocumentResponse struct {
	ID            string            `json:"id"`
	Code          string            `json:"code,omitempty"`
	Type          string            `json:"type"`
	Status        string            `json:"status"`
	PartnerID     string            `json:"partner_id,omitempty"`
	SourceID      string            `json:"source_id,omitempty"`
	Items         []DocumentItemDTO `json:"items"`
	TaxRate       decimal.Decimal   `json:"tax_rate"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	Tax           decimal.Decimal   `json:"tax"`
	Total         decimal.Decimal   `json:"total"`
	UpdatedBy     string            `json:"updated_by,omitempty"`
	LastUpdatedOn *time.Time        `json:"last_updated_on,omitempty"`
}

// NewDocumentResponse mapea la entidad.
func NewDocumentResponse(d *entity.Document) DocumentResponse {
	out := DocumentResponse{
		ID:        d.ID,
		Code:      d.Code,
		Type:      string(d.Type),
		Status:    string(d.Status),
		PartnerID: d.PartnerID,
		SourceID:  d.SourceID,
		Items:     make([]DocumentItemDTO, len(d.Items)),
		TaxRate:   d.TaxRate,
		Subtotal:  d.Subtotal,
		Tax:       d.Tax,
		Total:     d.Total,
		UpdatedBy: d.UpdatedBy,
	}
	for i, it := range d.Items {
		out.Items[i] = DocumentItemDTO{ItemID: it.ItemID, Quantity: it.Quantity, UnitPrice: it.UnitPrice, Discount: it.Discount}
	}
	if !d.LastUpdatedOn.IsZero() {
		t := d.LastUpdatedOn
		out.LastUpdatedOn = &t
	}
	return out
}
