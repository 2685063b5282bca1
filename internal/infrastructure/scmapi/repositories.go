package scmapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jhoicas/scm-fulfillment/internal/domain"
	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
	"github.com/jhoicas/scm-fulfillment/internal/domain/repository"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
)

var (
	_ repository.DocumentRepository      = documentRepo{}
	_ repository.TicketRepository        = ticketRepo{}
	_ repository.ManufacturingRepository = manufacturingRepo{}
	_ repository.SalesRepository         = salesRepo{}
	_ repository.InventoryRepository     = inventoryRepo{}
)

func (c *Client) Documents() repository.DocumentRepository { return documentRepo{c} }
func (c *Client) Tickets() repository.TicketRepository { return ticketRepo{c} }
func (c *Client) Manufacturing() repository.ManufacturingRepository { return manufacturingRepo{c} }
func (c *Client) Sales() repository.SalesRepository { return salesRepo{c} }
func (c *Client) Inventory() repository.InventoryRepository { return inventoryRepo{c} }

var collections = map[status.DocumentType]string{
	status.TypeRFQ:            "rfqs",
	status.TypeQuotation:      "quotations",
	status.TypePurchaseOrder:  "purchase-orders",
	status.TypeSalesOrder:     "sales-orders",
	status.TypeIssueTicket:    "issue-tickets",
	status.TypeReceiveTicket:  "receive-tickets",
	status.TypeTransferTicket: "transfer-tickets",
}

func resourcePath(t status.DocumentType, id string) (string, error) {
	coll, ok := collections[t]
	if !ok {
		return "", fmt.Errorf("%w: tipo %q sin recurso remoto", domain.ErrInvalidInput, t)
	}
	if id == "" {
		return "/" + coll, nil
	}
	return "/" + coll + "/" + url.PathEscape(id), nil
}

// ── Documentos ─────────────────────────────────────────────────────────────

type documentRepo struct{ c *Client }

func (r documentRepo) Get(ctx context.Context, docType status.DocumentType, id string) (*entity.Document, error) {
	if !docType.IsCommercial() {
		return nil, fmt.Errorf("%w: %s no es un documento comercial", domain.ErrInvalidInput, docType)
	}
	path, err := resourcePath(docType, id)
	if err != nil {
		return nil, err
	}
	obj, err := r.c.getOne(ctx, "get_"+string(docType), path, nil)
	if err != nil {
		return nil, err
	}
	return decodeDocument(docType, obj)
}

func (r documentRepo) UpdateStatus(ctx context.Context, docType status.DocumentType, id string, s status.State) error {
	path, err := resourcePath(docType, id)
	if err != nil {
		return err
	}
	_, err = r.c.do(ctx, "update_"+string(docType)+"_status", http.MethodPut, path+"/status", nil, "", wireStatus{Status: string(s)})
	return err
}

// ── Tickets ────────────────────────────────────────────────────────────────

type ticketRepo struct{ c *Client }

func (r ticketRepo) Get(ctx context.Context, ticketType status.DocumentType, id string) (*entity.Ticket, error) {
	if !ticketType.IsTicket() {
		return nil, fmt.Errorf("%w: %s no es un ticket", domain.ErrInvalidInput, ticketType)
	}
	path, err := resourcePath(ticketType, id)
	if err != nil {
		return nil, err
	}
	obj, err := r.c.getOne(ctx, "get_"+string(ticketType), path, nil)
	if err != nil {
		return nil, err
	}
	return decodeTicket(ticketType, obj)
}

// Update reemplaza el ticket completo. Si el remoto no devuelve cuerpo, se asume el enviado.
func (r ticketRepo) Update(ctx context.Context, tk *entity.Ticket) (*entity.Ticket, error) {
	path, err := resourcePath(tk.Type, tk.ID)
	if err != nil {
		return nil, err
	}
	body, err := encodeTicket(tk)
	if err != nil {
		return nil, err
	}
	data, err := r.c.do(ctx, "update_"+string(tk.Type), http.MethodPut, path, nil, "", body)
	if err != nil {
		return nil, err
	}
	return r.echo(tk, data)
}

// Create solo admite tickets de salida y de entrada; los traslados nacen en el remoto.
func (r ticketRepo) Create(ctx context.Context, tk *entity.Ticket) (*entity.Ticket, error) {
	if tk.Type != status.TypeIssueTicket && tk.Type != status.TypeReceiveTicket {
		return nil, fmt.Errorf("%w: no se crean tickets de tipo %s", domain.ErrInvalidInput, tk.Type)
	}
	path, err := resourcePath(tk.Type, "")
	if err != nil {
		return nil, err
	}
	body, err := encodeTicket(tk)
	if err != nil {
		return nil, err
	}
	var key string
	if tk.ReferenceID != "" {
		key = fmt.Sprintf("%s:%s:%s", tk.Type, tk.Origin, tk.ReferenceID)
	}
	data, err := r.c.do(ctx, "create_"+string(tk.Type), http.MethodPost, path, nil, key, body)
	if err != nil {
		return nil, err
	}
	return r.echo(tk, data)
}

func (r ticketRepo) echo(sent *entity.Ticket, data []byte) (*entity.Ticket, error) {
	obj, ok, err := decodeOne(data)
	if err != nil {
		return nil, err
	}
	if !ok {
		return sent.Clone(), nil
	}
	return decodeTicket(sent.Type, obj)
}

// ── Producción ─────────────────────────────────────────────────────────────

type manufacturingRepo struct{ c *Client }

func (r manufacturingRepo) GetOrder(ctx context.Context, id string) (*entity.ManufacturingOrder, error) {
	obj, err := r.c.getOne(ctx, "get_manufacturing_order", "/manufacturing-orders/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeOrder(obj)
}

func (r manufacturingRepo) UpdateOrder(ctx context.Context, o *entity.ManufacturingOrder) (*entity.ManufacturingOrder, error) {
	body, err := encodeOrder(o)
	if err != nil {
		return nil, err
	}
	data, err := r.c.do(ctx, "update_manufacturing_order", http.MethodPut, "/manufacturing-orders/"+url.PathEscape(o.ID), nil, "", body)
	if err != nil {
		return nil, err
	}
	obj, ok, err := decodeOne(data)
	if err != nil {
		return nil, err
	}
	if !ok {
		cp := *o
		return &cp, nil
	}
	return decodeOrder(obj)
}

func (r manufacturingRepo) ListProcesses(ctx context.Context, orderID string) ([]entity.Process, error) {
	data, err := r.c.do(ctx, "list_processes", http.MethodGet, "/manufacturing-orders/"+url.PathEscape(orderID)+"/processes", nil, "", nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeList(data)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Process, 0, len(items))
	for _, raw := range items {
		p, err := decodeProcess(raw)
		if err != nil {
			return nil, err
		}
		if p.OrderID == "" {
			p.OrderID = orderID
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r manufacturingRepo) UpdateProcess(ctx context.Context, p *entity.Process) (*entity.Process, error) {
	body, err := encodeProcess(p)
	if err != nil {
		return nil, err
	}
	data, err := r.c.do(ctx, "update_process", http.MethodPut, "/processes/"+url.PathEscape(p.ID), nil, "", body)
	if err != nil {
		return nil, err
	}
	obj, ok, err := decodeOne(data)
	if err != nil {
		return nil, err
	}
	if !ok {
		cp := *p
		return &cp, nil
	}
	return decodeProcess(obj)
}

// ── Ventas ─────────────────────────────────────────────────────────────────

type salesRepo struct{ c *Client }

func (r salesRepo) GetSalesOrder(ctx context.Context, id string) (*entity.SalesOrder, error) {
	obj, err := r.c.getOne(ctx, "get_sales_order", "/sales-orders/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var w wireSalesOrder
	if err := json.Unmarshal(obj, &w); err != nil {
		return nil, fmt.Errorf("decodificar orden de venta: %w", err)
	}
	return &entity.SalesOrder{ID: string(w.ID), Code: w.Code, Status: status.Normalize(w.Status)}, nil
}

func (r salesRepo) UpdateSalesOrderStatus(ctx context.Context, id string, s status.State) error {
	_, err := r.c.do(ctx, "update_sales_order_status", http.MethodPut, "/sales-orders/"+url.PathEscape(id)+"/status", nil, "", wireStatus{Status: string(s)})
	return err
}

func (r salesRepo) CreateDeliveryOrder(ctx context.Context, soID string, s status.State) (*entity.DeliveryOrder, error) {
	data, err := r.c.do(ctx, "create_delivery_order", http.MethodPost, "/delivery-orders", nil,
		"delivery_order:"+soID, wireDeliveryRequest{SOID: flexID(soID), Status: string(s)})
	if err != nil {
		return nil, err
	}
	obj, ok, err := decodeOne(data)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &entity.DeliveryOrder{SOID: soID, Status: s}, nil
	}
	var w wireDeliveryOrder
	if err := json.Unmarshal(obj, &w); err != nil {
		return nil, fmt.Errorf("decodificar orden de entrega: %w", err)
	}
	do := &entity.DeliveryOrder{ID: string(w.ID), Code: w.Code, SOID: string(w.SOID), Status: status.Normalize(w.Status), CreatedOn: w.CreatedOn.Time}
	if do.SOID == "" {
		do.SOID = soID
	}
	return do, nil
}

// ── Inventario ─────────────────────────────────────────────────────────────

type inventoryRepo struct{ c *Client }

// Get elige, entre lo que responda el remoto, la fila de (warehouseID, itemID). Un servidor que
// ignora el filtro no puede hacer que el saldo se compare contra otra fila.
func (r inventoryRepo) Get(ctx context.Context, warehouseID, itemID string) (*entity.InventoryRecord, error) {
	q := url.Values{"warehouseId": {warehouseID}, "itemId": {itemID}}
	data, err := r.c.do(ctx, "get_inventory", http.MethodGet, "/inventory", q, "", nil)
	if err != nil {
		return nil, err
	}
	rows, err := decodeList(data)
	if err != nil {
		obj, ok, oneErr := decodeOne(data)
		if oneErr != nil {
			return nil, fmt.Errorf("get_inventory: %w", oneErr)
		}
		if ok {
			rows = []json.RawMessage{obj}
		}
	}
	for _, raw := range rows {
		var w wireInventory
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, fmt.Errorf("decodificar inventario: %w", err)
		}
		wid, iid := string(w.WarehouseID), string(w.ItemID)
		// Una única fila sin ids se asume filtrada por el servidor.
		if wid == "" && iid == "" && len(rows) == 1 {
			wid, iid = warehouseID, itemID
		}
		if wid != warehouseID || iid != itemID {
			continue
		}
		return &entity.InventoryRecord{
			WarehouseID:      wid,
			ItemID:           iid,
			Quantity:         w.Quantity,
			OnDemandQuantity: w.OnDemandQuantity,
		}, nil
	}
	return nil, fmt.Errorf("%w: inventario %s/%s", domain.ErrNotFound, warehouseID, itemID)
}

func (r inventoryRepo) DecreaseQuantity(ctx context.Context, m entity.StockMutation) error {
	return r.mutate(ctx, "decrease_quantity", "/inventory/decrease-quantity", m.MutationID,
		wireQuantityMutation{WarehouseID: flexID(m.WarehouseID), ItemID: flexID(m.ItemID), Quantity: m.Amount})
}

func (r inventoryRepo) DecreaseOnDemand(ctx context.Context, m entity.StockMutation) error {
	return r.mutate(ctx, "decrease_on_demand", "/inventory/decrease-on-demand", m.MutationID,
		wireOnDemandMutation{WarehouseID: flexID(m.WarehouseID), ItemID: flexID(m.ItemID), OnDemandQuantity: m.Amount})
}

func (r inventoryRepo) IncreaseQuantity(ctx context.Context, m entity.StockMutation) error {
	return r.mutate(ctx, "increase_quantity", "/inventory/increase-quantity", m.MutationID,
		wireQuantityMutation{WarehouseID: flexID(m.WarehouseID), ItemID: flexID(m.ItemID), Quantity: m.Amount})
}

// mutate envía la mutación con su id como Idempotency-Key: un reintento no la aplica dos veces.
func (r inventoryRepo) mutate(ctx context.Context, op, path, key string, body any) error {
	_, err := r.c.do(ctx, op, http.MethodPut, path, nil, key, body)
	return err
}
