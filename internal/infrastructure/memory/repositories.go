package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/scm-fulfillment/internal/domain"
	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
	"github.com/jhoicas/scm-fulfillment/internal/domain/repository"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
)

var errNotFound = domain.ErrNotFound

var (
	_ repository.DocumentRepository      = documentRepo{}
	_ repository.TicketRepository        = ticketRepo{}
	_ repository.ManufacturingRepository = manufacturingRepo{}
	_ repository.SalesRepository         = salesRepo{}
	_ repository.InventoryRepository     = inventoryRepo{}
)

// Documents expone el store como repository.DocumentRepository.
func (s *Store) Documents() repository.DocumentRepository { return documentRepo{s} }

// Tickets expone el store como repository.TicketRepository.
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }

// Manufacturing expone el store como repository.ManufacturingRepository.
func (s *Store) Manufacturing() repository.ManufacturingRepository { return manufacturingRepo{s} }

// Sales expone el store como repository.SalesRepository.
func (s *Store) Sales() repository.SalesRepository { return salesRepo{s} }

// Inventory expone el store como repository.InventoryRepository.
func (s *Store) Inventory() repository.InventoryRepository { return inventoryRepo{s} }

type documentRepo struct{ s *Store }

func (r documentRepo) Get(_ context.Context, t status.DocumentType, id string) (*entity.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(OpGetDocument); err != nil {
		return nil, err
	}
	d, ok := r.s.documents[docKey{t, id}]
	if !ok {
		return nil, notFound(string(t), id)
	}
	c := *d
	c.Items = append([]entity.DocumentItem(nil), d.Items...)
	return &c, nil
}

func (r documentRepo) UpdateStatus(_ context.Context, t status.DocumentType, id string, st status.State) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(OpUpdateDocumentStatus); err != nil {
		return err
	}
	d, ok := r.s.documents[docKey{t, id}]
	if !ok {
		return notFound(string(t), id)
	}
	d.Status = st
	d.LastUpdatedOn = time.Now()
	return nil
}

type ticketRepo struct{ s *Store }

func (r ticketRepo) Get(_ context.Context, t status.DocumentType, id string) (*entity.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(OpGetTicket); err != nil {
		return nil, err
	}
	tk, ok := r.s.tickets[docKey{t, id}]
	if !ok {
		return nil, notFound(string(t), id)
	}
	return tk.Clone(), nil
}

func (r ticketRepo) Update(_ context.Context, tk *entity.Ticket) (*entity.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(OpUpdateTicket); err != nil {
		return nil, err
	}
	key := docKey{tk.Type, tk.ID}
	if _, ok := r.s.tickets[key]; !ok {
		return nil, notFound(string(tk.Type), tk.ID)
	}
	c := tk.Clone()
	c.LastUpdatedOn = time.Now()
	r.s.tickets[key] = c
	return c.Clone(), nil
}

func (r ticketRepo) Create(_ context.Context, tk *entity.Ticket) (*entity.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(OpCreateTicket); err != nil {
		return nil, err
	}
	if tk.Type != status.TypeIssueTicket && tk.Type != status.TypeReceiveTicket {
		return nil, fmt.Errorf("%w: no se crean tickets de tipo %s", domain.ErrInvalidInput, tk.Type)
	}
	// Misma clave de idempotencia que el cliente HTTP: tipo, origen y referencia.
	if tk.ReferenceID != "" {
		for k, existing := range r.s.tickets {
			if k.t == tk.Type && existing.Origin == tk.Origin && existing.ReferenceID == tk.ReferenceID {
				return existing.Clone(), nil
			}
		}
	}
	c := tk.Clone()
	if c.ID == "" {
		c.ID = r.s.nextID(string(c.Type))
	}
	if c.Code == "" {
		c.Code = c.ID
	}
	now := time.Now()
	c.CreatedOn = now
	c.LastUpdatedOn = now
	key := docKey{c.Type, c.ID}
	if _, exists := r.s.tickets[key]; exists {
		return nil, domain.ErrConflict
	}
	r.s.tickets[key] = c
	return c.Clone(), nil
}

type manufacturingRepo struct{ s *Store }

func (r manufacturingRepo) GetOrder(_ context.Context, id string) (*entity.ManufacturingOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(OpGetOrder); err != nil {
		return nil, err
	}
	o, ok := r.s.orders[id]
	if !ok {
		return nil, notFound("manufacturing order", id)
	}
	c := *o
	return &c, nil
}

func (r manufacturingRepo) UpdateOrder(_ context.Context, o *entity.ManufacturingOrder) (*entity.ManufacturingOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(OpUpdateOrder); err != nil {
		return nil, err
	}
	if _, ok := r.s.orders[o.ID]; !ok {
		return nil, notFound("manufacturing order", o.ID)
	}
	c := *o
	c.LastUpdatedOn = time.Now()
	r.s.orders[o.ID] = &c
	out := c
	return &out, nil
}

// ListProcesses devuelve las etapas en el orden guardado; el llamador ordena por etapa.
func (r manufacturingRepo) ListProcesses(_ context.Context, orderID string) ([]entity.Process, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(OpListProcesses); err != nil {
		return nil, err
	}
	if _, ok := r.s.orders[orderID]; !ok {
		return nil, notFound("manufacturing order", orderID)
	}
	return append([]entity.Process(nil), r.s.processes[orderID]...), nil
}

func (r manufacturingRepo) UpdateProcess(_ context.Context, p *entity.Process) (*entity.Process, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(OpUpdateProcess); err != nil {
		return nil, err
	}
	for orderID, ps := range r.s.processes {
		for i := range ps {
			if ps[i].ID == p.ID {
				c := *p
				c.OrderID = orderID
				ps[i] = c
				return &c, nil
			}
		}
	}
	return nil, notFound("process", p.ID)
}

type salesRepo struct{ s *Store }

func (r salesRepo) GetSalesOrder(_ context.Context, id string) (*entity.SalesOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(OpGetSalesOrder); err != nil {
		return nil, err
	}
	so, ok := r.s.sales[id]
	if !ok {
		return nil, notFound("sales order", id)
	}
	c := *so
	return &c, nil
}

func (r salesRepo) UpdateSalesOrderStatus(_ context.Context, id string, st status.State) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(OpUpdateSalesOrder); err != nil {
		return err
	}
	so, ok := r.s.sales[id]
	if !ok {
		return notFound("sales order", id)
	}
	so.Status = st
	return nil
}

func (r salesRepo) CreateDeliveryOrder(_ context.Context, soID string, st status.State) (*entity.DeliveryOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(OpCreateDeliveryOrder); err != nil {
		return nil, err
	}
	if _, ok := r.s.sales[soID]; !ok {
		return nil, notFound("sales order", soID)
	}
	id := r.s.nextID("do")
	do := entity.DeliveryOrder{ID: id, Code: id, SOID: soID, Status: st, CreatedOn: time.Now()}
	r.s.deliveries = append(r.s.deliveries, do)
	return &do, nil
}

type inventoryRepo struct{ s *Store }

func (r inventoryRepo) Get(_ context.Context, warehouseID, itemID string) (*entity.InventoryRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter(OpGetInventory); err != nil {
		return nil, err
	}
	rec, ok := r.s.inventory[warehouseID+":"+itemID]
	if !ok {
		return nil, notFound("inventory", warehouseID+":"+itemID)
	}
	c := *rec
	return &c, nil
}

func (r inventoryRepo) DecreaseQuantity(_ context.Context, m entity.StockMutation) error {
	return r.s.mutate(OpDecreaseQuantity, m, func(rec *entity.InventoryRecord) {
		rec.Quantity = rec.Quantity.Sub(m.Amount)
	})
}

func (r inventoryRepo) DecreaseOnDemand(_ context.Context, m entity.StockMutation) error {
	return r.s.mutate(OpDecreaseOnDemand, m, func(rec *entity.InventoryRecord) {
		rec.OnDemandQuantity = rec.OnDemandQuantity.Sub(m.Amount)
	})
}

// IncreaseQuantity crea la fila si la bodega aún no tenía el item.
func (r inventoryRepo) IncreaseQuantity(_ context.Context, m entity.StockMutation) error {
	r.s.mu.Lock()
	if _, ok := r.s.inventory[m.Key()]; !ok {
		r.s.inventory[m.Key()] = &entity.InventoryRecord{WarehouseID: m.WarehouseID, ItemID: m.ItemID}
	}
	r.s.mu.Unlock()
	return r.s.mutate(OpIncreaseQuantity, m, func(rec *entity.InventoryRecord) {
		rec.Quantity = rec.Quantity.Add(m.Amount)
	})
}

// mutate aplica fn una sola vez por MutationID, como un servidor que deduplica por Idempotency-Key.
func (s *Store) mutate(op string, m entity.StockMutation, fn func(*entity.InventoryRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(op); err != nil {
		return err
	}
	rec, ok := s.inventory[m.Key()]
	if !ok {
		return notFound("inventory", m.Key())
	}
	if m.MutationID != "" {
		if s.applied[m.MutationID] {
			return nil
		}
		s.applied[m.MutationID] = true
	}
	fn(rec)
	return nil
}
