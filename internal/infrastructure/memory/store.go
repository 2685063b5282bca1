// Package memory implementa en memoria la API remota de documentos, tickets e inventario
// y la bitácora de orquestación. Se usa en tests y con SCM_API_DRIVER=memory.
package memory

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
)

// Operaciones que cuentan Calls y que acepta FailOn.
const (
	OpGetDocument          = "document.get"
	OpUpdateDocumentStatus = "document.update_status"
	OpGetTicket            = "ticket.get"
	OpUpdateTicket         = "ticket.update"
	OpCreateTicket         = "ticket.create"
	OpGetOrder             = "manufacturing.get_order"
	OpUpdateOrder          = "manufacturing.update_order"
	OpListProcesses        = "manufacturing.list_processes"
	OpUpdateProcess        = "manufacturing.update_process"
	OpGetSalesOrder        = "sales.get"
	OpUpdateSalesOrder     = "sales.update_status"
	OpCreateDeliveryOrder  = "sales.create_delivery_order"
	OpGetInventory         = "inventory.get"
	OpDecreaseQuantity     = "inventory.decrease_quantity"
	OpDecreaseOnDemand     = "inventory.decrease_on_demand"
	OpIncreaseQuantity     = "inventory.increase_quantity"
)

type docKey struct {
	t  status.DocumentType
	id string
}

// Store guarda todo bajo un único mutex. Las lecturas devuelven copias.
type Store struct {
	mu         sync.RWMutex
	seq        int
	documents  map[docKey]*entity.Document
	tickets    map[docKey]*entity.Ticket
	orders     map[string]*entity.ManufacturingOrder
	processes  map[string][]entity.Process // por orden
	sales      map[string]*entity.SalesOrder
	deliveries []entity.DeliveryOrder
	inventory  map[string]*entity.InventoryRecord
	applied    map[string]bool // MutationID ya aplicados
	failures   map[string]error
	calls      map[string]int
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		documents: make(map[docKey]*entity.Document),
		tickets:   make(map[docKey]*entity.Ticket),
		orders:    make(map[string]*entity.ManufacturingOrder),
		processes: make(map[string][]entity.Process),
		sales:     make(map[string]*entity.SalesOrder),
		inventory: make(map[string]*entity.InventoryRecord),
		applied:   make(map[string]bool),
		failures:  make(map[string]error),
		calls:     make(map[string]int),
	}
}

// FailOn hace que la operación op devuelva err hasta que se llame ClearFailure.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// ClearFailure quita la falla inyectada para op.
func (s *Store) ClearFailure(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, op)
}

// Calls devuelve cuántas veces se invocó op (incluidas las fallidas).
func (s *Store) Calls(op string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[op]
}

// enter registra la llamada y devuelve la falla inyectada, si hay. Requiere s.mu tomado.
func (s *Store) enter(op string) error {
	s.calls[op]++
	return s.failures[op]
}

func (s *Store) nextID(prefix string) string {
	s.seq++
	return prefix + "-" + strconv.Itoa(s.seq)
}

// ── Sembrado y lectura directa (tests) ─────────────────────────────────────

// PutDocument guarda una copia del documento.
func (s *Store) PutDocument(d *entity.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *d
	c.Items = append([]entity.DocumentItem(nil), d.Items...)
	s.documents[docKey{d.Type, d.ID}] = &c
}

// PutTicket guarda una copia del ticket.
func (s *Store) PutTicket(t *entity.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[docKey{t.Type, t.ID}] = t.Clone()
}

// PutManufacturingOrder guarda la orden y sus etapas.
func (s *Store) PutManufacturingOrder(o *entity.ManufacturingOrder, processes ...entity.Process) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *o
	s.orders[o.ID] = &c
	ps := make([]entity.Process, len(processes))
	for i, p := range processes {
		p.OrderID = o.ID
		ps[i] = p
	}
	s.processes[o.ID] = ps
}

// PutSalesOrder guarda la orden de venta.
func (s *Store) PutSalesOrder(so *entity.SalesOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *so
	s.sales[so.ID] = &c
}

// PutInventory guarda la fila de inventario.
func (s *Store) PutInventory(r entity.InventoryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inventory[r.WarehouseID+":"+r.ItemID] = &r
}

// Document lee un documento sin contar la llamada.
func (s *Store) Document(t status.DocumentType, id string) (*entity.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[docKey{t, id}]
	if !ok {
		return nil, false
	}
	c := *d
	return &c, true
}

// Ticket lee un ticket sin contar la llamada.
func (s *Store) Ticket(t status.DocumentType, id string) (*entity.Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tk, ok := s.tickets[docKey{t, id}]
	if !ok {
		return nil, false
	}
	return tk.Clone(), true
}

// TicketsByType lista los tickets de un tipo.
func (s *Store) TicketsByType(t status.DocumentType) []*entity.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Ticket
	for k, tk := range s.tickets {
		if k.t == t {
			out = append(out, tk.Clone())
		}
	}
	return out
}

// ManufacturingOrder lee una orden sin contar la llamada.
func (s *Store) ManufacturingOrder(id string) (*entity.ManufacturingOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, false
	}
	c := *o
	return &c, true
}

// Processes devuelve las etapas de la orden en el orden guardado.
func (s *Store) Processes(orderID string) []entity.Process {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.Process(nil), s.processes[orderID]...)
}

// SalesOrder lee una orden de venta sin contar la llamada.
func (s *Store) SalesOrder(id string) (*entity.SalesOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	so, ok := s.sales[id]
	if !ok {
		return nil, false
	}
	c := *so
	return &c, true
}

// DeliveryOrders devuelve las órdenes de despacho creadas.
func (s *Store) DeliveryOrders() []entity.DeliveryOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.DeliveryOrder(nil), s.deliveries...)
}

// InventoryRecord lee la fila sin contar la llamada.
func (s *Store) InventoryRecord(warehouseID, itemID string) (entity.InventoryRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.inventory[warehouseID+":"+itemID]
	if !ok {
		return entity.InventoryRecord{}, false
	}
	return *r, true
}

func notFound(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, errNotFound)
}
