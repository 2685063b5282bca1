// Package status centraliza los estados válidos de cada tipo de documento o ticket
// y su grafo de transiciones. Los literales de estado forman parte del contrato
// con la API remota (se comparan tal cual, sensibles a mayúsculas), por eso
// ningún otro paquete debe comparar cadenas de estado directamente.
package status

import "strings"

// DocumentType identifica el tipo de documento o ticket.
type DocumentType string

// Tipos comerciales, tickets de bodega y entidades aguas abajo del orquestador.
const (
	TypeRFQ            DocumentType = "rfq"
	TypeQuotation      DocumentType = "quotation"
	TypePurchaseOrder  DocumentType = "purchase_order"
	TypeSalesOrder     DocumentType = "sales_order"
	TypeIssueTicket    DocumentType = "issue_ticket"
	TypeReceiveTicket  DocumentType = "receive_ticket"
	TypeTransferTicket DocumentType = "transfer_ticket"

	TypeManufacturingOrder DocumentType = "manufacturing_order"
	TypeProcess            DocumentType = "process"
	TypeDeliveryOrder      DocumentType = "delivery_order"

	// TypeFulfillmentRun es la máquina de estados interna de cada corrida del orquestador.
	TypeFulfillmentRun DocumentType = "fulfillment_run"
)

// State es un token de estado. Para los documentos remotos es el literal en vietnamita.
type State string

// Estados de RFQ (la API remota los usa en minúsculas).
const (
	RFQPending   State = "chưa báo giá"
	RFQQuoted    State = "đã báo giá"
	RFQExpired   State = "quá hạn báo giá"
	RFQCancelled State = "đã hủy"
	RFQAccepted  State = "đã chấp nhận"
	RFQRejected  State = "đã từ chối"
)

// Estados compartidos por cotizaciones, órdenes y tickets.
const (
	Quoted               State = "Đã báo giá"
	Accepted             State = "Đã chấp nhận"
	Rejected             State = "Đã từ chối"
	Cancelled            State = "Đã hủy"
	Completed            State = "Đã hoàn thành"
	AwaitingConfirmation State = "Chờ xác nhận"
	Confirmed            State = "Đã xác nhận"
	InTransit            State = "Đang vận chuyển"
	AwaitingReceipt      State = "Chờ nhập kho"
	AwaitingIssue        State = "Chờ xuất kho"
	AwaitingShipment     State = "Chờ vận chuyển"
	AwaitingProduction   State = "Chờ sản xuất"
	InProduction         State = "Đang sản xuất"
	ProcessPending       State = "Chưa thực hiện"
	ProcessRunning       State = "Đang thực hiện"
)

// Estados de una corrida del orquestador de despacho.
const (
	RunStarted               State = "started"
	RunManufacturingAdvanced State = "manufacturing_advanced"
	RunTransferPropagated    State = "transfer_propagated"
	RunDeliveryCreated       State = "delivery_created"
	RunBranchSkipped         State = "branch_skipped"
	RunInventoryAdjusted     State = "inventory_adjusted"
	RunDone                  State = "done"
	RunFailed                State = "failed"
)

// String implementa fmt.Stringer.
func (s State) String() string { return string(s) }

// String implementa fmt.Stringer.
func (t DocumentType) String() string { return string(t) }

// ParseDocumentType acepta el nombre del tipo con guiones o guiones bajos ("issue-ticket", "issue_ticket").
func ParseDocumentType(raw string) (DocumentType, bool) {
	t := DocumentType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	if _, ok := registry[t]; !ok {
		return "", false
	}
	return t, true
}

// IsCommercial indica si el tipo es un documento comercial (RFQ, cotización, PO, SO).
func (t DocumentType) IsCommercial() bool {
	switch t {
	case TypeRFQ, TypeQuotation, TypePurchaseOrder, TypeSalesOrder:
		return true
	}
	return false
}

// IsTicket indica si el tipo es un ticket de bodega.
func (t DocumentType) IsTicket() bool {
	switch t {
	case TypeIssueTicket, TypeReceiveTicket, TypeTransferTicket:
		return true
	}
	return false
}
