package scmapi

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
)

// kv campo del cable con su destino (al decodificar) o su valor (al codificar).
type kv struct {
	key string
	v   any
}

func (f fields) takeAll(kvs []kv) error {
	for _, e := range kvs {
		if err := f.take(e.key, e.v); err != nil {
			return err
		}
	}
	return nil
}

func (f fields) putAll(kvs []kv) error {
	for _, e := range kvs {
		if err := f.put(e.key, e.v); err != nil {
			return err
		}
	}
	return nil
}

// ── Tickets ────────────────────────────────────────────────────────────────

type wireDetail struct {
	ItemID         flexID           `json:"itemId"`
	Quantity       decimal.Decimal  `json:"quantity"`
	ActualQuantity *decimal.Decimal `json:"actualQuantity,omitempty"`
	Note           string           `json:"note,omitempty"`
}

// originKey campo discriminador del origen según el tipo de ticket.
func originKey(t status.DocumentType) string {
	if t == status.TypeReceiveTicket {
		return "receiveType"
	}
	return "issueType"
}

func decodeTicket(t status.DocumentType, data []byte) (*entity.Ticket, error) {
	f, err := decodeFields(data)
	if err != nil {
		return nil, err
	}
	var (
		id, warehouse, from, to, ref flexID
		code, st, origin, refCode    string
		createdBy                    string
		issueDate, receiveDate       *wireTime
		createdOn, updatedOn         wireTime
		details                      []wireDetail
	)
	if err := f.takeAll([]kv{
		{"id", &id}, {"code", &code}, {"status", &st},
		{"warehouseId", &warehouse}, {"fromWarehouseId", &from}, {"toWarehouseId", &to},
		{originKey(t), &origin}, {"referenceId", &ref}, {"referenceCode", &refCode},
		{"issueDate", &issueDate}, {"receiveDate", &receiveDate},
		{"createdBy", &createdBy}, {"createdOn", &createdOn}, {"lastUpdatedOn", &updatedOn},
		{"details", &details},
	}); err != nil {
		return nil, err
	}

	tk := &entity.Ticket{
		ID:              string(id),
		Code:            code,
		Type:            t,
		Status:          status.Normalize(st),
		WarehouseID:     string(warehouse),
		FromWarehouseID: string(from),
		ToWarehouseID:   string(to),
		Origin:          entity.Origin(status.Normalize(origin)),
		ReferenceID:     string(ref),
		ReferenceCode:   refCode,
		IssueDate:       timePtr(issueDate),
		ReceiveDate:     timePtr(receiveDate),
		CreatedBy:       createdBy,
		CreatedOn:       createdOn.Time,
		LastUpdatedOn:   updatedOn.Time,
		Details:         make([]entity.TicketDetail, len(details)),
		Extra:           f.extra(),
	}
	for i, d := range details {
		tk.Details[i] = entity.TicketDetail{
			ItemID:         string(d.ItemID),
			Quantity:       d.Quantity,
			ActualQuantity: d.ActualQuantity,
			Note:           d.Note,
		}
	}
	return tk, nil
}

// encodeTicket arma el cuerpo completo del ticket: los campos no interpretados se reenvían tal cual.
func encodeTicket(tk *entity.Ticket) ([]byte, error) {
	f := fromExtra(tk.Extra)
	details := make([]wireDetail, len(tk.Details))
	for i, d := range tk.Details {
		details[i] = wireDetail{ItemID: flexID(d.ItemID), Quantity: d.Quantity, ActualQuantity: d.ActualQuantity, Note: d.Note}
	}
	kvs := []kv{
		{"id", flexID(tk.ID)},
		{"code", tk.Code},
		{"status", string(tk.Status)},
		{"referenceId", flexID(tk.ReferenceID)},
		{"referenceCode", tk.ReferenceCode},
		{"issueDate", toWireTime(tk.IssueDate)},
		{"receiveDate", toWireTime(tk.ReceiveDate)},
		{"details", details},
	}
	if tk.Type == status.TypeTransferTicket {
		kvs = append(kvs, kv{"fromWarehouseId", flexID(tk.FromWarehouseID)}, kv{"toWarehouseId", flexID(tk.ToWarehouseID)})
	} else {
		kvs = append(kvs, kv{"warehouseId", flexID(tk.WarehouseID)}, kv{originKey(tk.Type), string(tk.Origin)})
	}
	if tk.CreatedBy != "" {
		kvs = append(kvs, kv{"createdBy", tk.CreatedBy})
	}
	if err := f.putAll(kvs); err != nil {
		return nil, err
	}
	return json.Marshal(f)
}

// ── Documentos comerciales ─────────────────────────────────────────────────

type wireItem struct {
	ItemID    flexID           `json:"itemId"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
	Price     *decimal.Decimal `json:"price"`
	Discount  decimal.Decimal  `json:"discount"`
}

// sourceKey campo que apunta al documento de origen.
func sourceKey(t status.DocumentType) string {
	switch t {
	case status.TypeQuotation:
		return "rfqId"
	case status.TypePurchaseOrder:
		return "quotationId"
	case status.TypeSalesOrder:
		return "purchaseOrderId"
	}
	return ""
}

func partnerKey(t status.DocumentType) string {
	if t == status.TypeSalesOrder {
		return "customerId"
	}
	return "supplierId"
}

func decodeDocument(t status.DocumentType, data []byte) (*entity.Document, error) {
	f, err := decodeFields(data)
	if err != nil {
		return nil, err
	}
	var (
		id, partner, source      flexID
		code, st, createdBy      string
		updatedBy                string
		items                    []wireItem
		taxRate, subtotal        decimal.Decimal
		tax, total               decimal.Decimal
		createdOn, lastUpdatedOn wireTime
	)
	kvs := []kv{
		{"id", &id}, {"code", &code}, {"status", &st}, {partnerKey(t), &partner},
		{"items", &items}, {"taxRate", &taxRate}, {"subtotal", &subtotal}, {"tax", &tax}, {"total", &total},
		{"createdBy", &createdBy}, {"updatedBy", &updatedBy},
		{"createdOn", &createdOn}, {"lastUpdatedOn", &lastUpdatedOn},
	}
	if k := sourceKey(t); k != "" {
		kvs = append(kvs, kv{k, &source})
	}
	if err := f.takeAll(kvs); err != nil {
		return nil, err
	}

	doc := &entity.Document{
		ID:            string(id),
		Code:          code,
		Type:          t,
		Status:        status.Normalize(st),
		PartnerID:     string(partner),
		TaxRate:       taxRate,
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         total,
		SourceID:      string(source),
		CreatedBy:     createdBy,
		UpdatedBy:     updatedBy,
		CreatedOn:     createdOn.Time,
		LastUpdatedOn: lastUpdatedOn.Time,
		Items:         make([]entity.DocumentItem, len(items)),
	}
	for i, it := range items {
		price := decimal.Zero
		switch {
		case it.UnitPrice != nil:
			price = *it.UnitPrice
		case it.Price != nil:
			price = *it.Price
		}
		doc.Items[i] = entity.DocumentItem{ItemID: string(it.ItemID), Quantity: it.Quantity, UnitPrice: price, Discount: it.Discount}
	}
	if doc.Total.IsZero() && len(doc.Items) > 0 {
		doc.RecalculateTotals()
	}
	return doc, nil
}

// ── Producción ─────────────────────────────────────────────────────────────

func decodeOrder(data []byte) (*entity.ManufacturingOrder, error) {
	f, err := decodeFields(data)
	if err != nil {
		return nil, err
	}
	var (
		id, item  flexID
		code, st  string
		quantity  decimal.Decimal
		started   *wireTime
		updatedOn wireTime
	)
	if err := f.takeAll([]kv{
		{"id", &id}, {"code", &code}, {"status", &st}, {"itemId", &item}, {"quantity", &quantity},
		{"startedOn", &started}, {"lastUpdatedOn", &updatedOn},
	}); err != nil {
		return nil, err
	}
	return &entity.ManufacturingOrder{
		ID:            string(id),
		Code:          code,
		Status:        status.Normalize(st),
		ItemID:        string(item),
		Quantity:      quantity,
		StartedOn:     timePtr(started),
		LastUpdatedOn: updatedOn.Time,
		Extra:         f.extra(),
	}, nil
}

func encodeOrder(o *entity.ManufacturingOrder) ([]byte, error) {
	f := fromExtra(o.Extra)
	if err := f.putAll([]kv{
		{"id", flexID(o.ID)}, {"code", o.Code}, {"status", string(o.Status)},
		{"itemId", flexID(o.ItemID)}, {"quantity", o.Quantity}, {"startedOn", toWireTime(o.StartedOn)},
	}); err != nil {
		return nil, err
	}
	return json.Marshal(f)
}

func decodeProcess(data []byte) (*entity.Process, error) {
	f, err := decodeFields(data)
	if err != nil {
		return nil, err
	}
	var (
		id, order         flexID
		name, st          string
		stage             int
		started, finished *wireTime
	)
	if err := f.takeAll([]kv{
		{"id", &id}, {"manufacturingOrderId", &order}, {"name", &name}, {"stageOrder", &stage},
		{"status", &st}, {"startedOn", &started}, {"finishedOn", &finished},
	}); err != nil {
		return nil, err
	}
	return &entity.Process{
		ID:         string(id),
		OrderID:    string(order),
		Name:       name,
		StageOrder: stage,
		Status:     status.Normalize(st),
		StartedOn:  timePtr(started),
		FinishedOn: timePtr(finished),
		Extra:      f.extra(),
	}, nil
}

func encodeProcess(p *entity.Process) ([]byte, error) {
	f := fromExtra(p.Extra)
	if err := f.putAll([]kv{
		{"id", flexID(p.ID)}, {"manufacturingOrderId", flexID(p.OrderID)}, {"name", p.Name},
		{"stageOrder", p.StageOrder}, {"status", string(p.Status)},
		{"startedOn", toWireTime(p.StartedOn)}, {"finishedOn", toWireTime(p.FinishedOn)},
	}); err != nil {
		return nil, err
	}
	return json.Marshal(f)
}

// ── Ventas ─────────────────────────────────────────────────────────────────

type wireSalesOrder struct {
	ID     flexID `json:"id"`
	Code   string `json:"code"`
	Status string `json:"status"`
}

type wireDeliveryOrder struct {
	ID        flexID   `json:"id"`
	Code      string   `json:"code"`
	SOID      flexID   `json:"soId"`
	Status    string   `json:"status"`
	CreatedOn wireTime `json:"createdOn"`
}

type wireStatus struct {
	Status string `json:"status"`
}

type wireDeliveryRequest struct {
	SOID   flexID `json:"soId"`
	Status string `json:"status"`
}

// ── Inventario ─────────────────────────────────────────────────────────────

type wireInventory struct {
	WarehouseID      flexID          `json:"warehouseId"`
	ItemID           flexID          `json:"itemId"`
	Quantity         decimal.Decimal `json:"quantity"`
	OnDemandQuantity decimal.Decimal `json:"onDemandQuantity"`
}

type wireQuantityMutation struct {
	WarehouseID flexID          `json:"warehouseId"`
	ItemID      flexID          `json:"itemId"`
	Quantity    decimal.Decimal `json:"quantity"`
}

type wireOnDemandMutation struct {
	WarehouseID      flexID          `json:"warehouseId"`
	ItemID           flexID          `json:"itemId"`
	OnDemandQuantity decimal.Decimal `json:"onDemandQuantity"`
}
