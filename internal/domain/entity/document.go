package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
)

var hundred = decimal.NewFromInt(100)

// DocumentItem línea de un documento comercial. Discount es un porcentaje (0-100).
type DocumentItem struct {
	ItemID    string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
}

// Net devuelve cantidad × precio × (1 - descuento/100).
func (i DocumentItem) Net() decimal.Decimal {
	gross := i.Quantity.Mul(i.UnitPrice)
	return gross.Sub(gross.Mul(i.Discount).Div(hundred))
}

// Document representa un RFQ, cotización, orden de compra u orden de venta.
type Document struct {
	ID        string
	Code      string
	Type      status.DocumentType
	Status    status.State
	PartnerID string // proveedor o cliente según el tipo
	Items     []DocumentItem
	TaxRate   decimal.Decimal // porcentaje
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
	// SourceID apunta al documento que lo originó: Quotation→RFQ, PO→Quotation, SO→PO.
	SourceID      string
	CreatedBy     string
	CreatedOn     time.Time
	LastUpdatedOn time.Time
	UpdatedBy     string
}

// RecalculateTotals recalcula subtotal, impuesto y total a partir de las líneas.
func (d *Document) RecalculateTotals() {
	subtotal := decimal.Zero
	for _, it := range d.Items {
		subtotal = subtotal.Add(it.Net())
	}
	d.Subtotal = subtotal
	d.Tax = subtotal.Mul(d.TaxRate).Div(hundred).Round(2)
	d.Total = d.Subtotal.Add(d.Tax)
}

// IsTerminal indica si el documento ya no admite transiciones.
func (d *Document) IsTerminal() bool {
	return status.IsTerminal(d.Type, d.Status)
}
