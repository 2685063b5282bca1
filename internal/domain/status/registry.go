package status

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/scm-fulfillment/internal/domain"
)

// machine guarda los estados en orden de declaración y las aristas permitidas.
type machine struct {
	states []State
	edges  map[State][]State
}

var registry = map[DocumentType]machine{
	TypeRFQ: {
		states: []State{RFQPending, RFQQuoted, RFQExpired, RFQCancelled, RFQAccepted, RFQRejected},
		edges: map[State][]State{
			RFQPending: {RFQQuoted, RFQExpired, RFQCancelled},
			RFQQuoted:  {RFQAccepted, RFQRejected},
		},
	},
	TypeQuotation: {
		states: []State{Quoted, Accepted, Rejected, Cancelled},
		edges: map[State][]State{
			Quoted: {Accepted, Rejected, Cancelled},
		},
	},
	TypePurchaseOrder: {
		states: []State{AwaitingConfirmation, Confirmed, InTransit, AwaitingReceipt, Completed, Cancelled},
		edges: map[State][]State{
			AwaitingConfirmation: {Confirmed, Cancelled},
			Confirmed:            {InTransit},
			InTransit:            {AwaitingReceipt},
			AwaitingReceipt:      {Completed},
		},
	},
	TypeSalesOrder: {
		states: []State{AwaitingConfirmation, Confirmed, AwaitingShipment, InTransit, Completed, Cancelled},
		edges: map[State][]State{
			AwaitingConfirmation: {Confirmed, Cancelled},
			Confirmed:            {AwaitingShipment, Cancelled},
			AwaitingShipment:     {InTransit},
			InTransit:            {Completed},
		},
	},
	TypeIssueTicket: {
		states: []State{AwaitingConfirmation, AwaitingIssue, Completed},
		edges: map[State][]State{
			AwaitingConfirmation: {AwaitingIssue},
			AwaitingIssue:        {Completed},
		},
	},
	TypeReceiveTicket: {
		states: []State{AwaitingConfirmation, AwaitingReceipt, Completed},
		edges: map[State][]State{
			AwaitingConfirmation: {AwaitingReceipt},
			AwaitingReceipt:      {Completed},
		},
	},
	TypeTransferTicket: {
		states: []State{AwaitingConfirmation, AwaitingIssue, AwaitingReceipt, Completed, Cancelled},
		edges: map[State][]State{
			AwaitingConfirmation: {AwaitingIssue, Cancelled},
			AwaitingIssue:        {AwaitingReceipt},
			AwaitingReceipt:      {Completed},
		},
	},
	TypeManufacturingOrder: {
		states: []State{AwaitingProduction, InProduction, Completed, Cancelled},
		edges: map[State][]State{
			AwaitingProduction: {InProduction, Cancelled},
			InProduction:       {Completed},
		},
	},
	TypeProcess: {
		states: []State{ProcessPending, ProcessRunning, Completed},
		edges: map[State][]State{
			ProcessPending: {ProcessRunning},
			ProcessRunning: {Completed},
		},
	},
	TypeDeliveryOrder: {
		states: []State{AwaitingConfirmation, InTransit, Completed, Cancelled},
		edges: map[State][]State{
			AwaitingConfirmation: {InTransit, Cancelled},
			InTransit:            {Completed},
		},
	},
	TypeFulfillmentRun: {
		states: []State{
			RunStarted, RunManufacturingAdvanced, RunTransferPropagated, RunDeliveryCreated,
			RunBranchSkipped, RunInventoryAdjusted, RunDone, RunFailed,
		},
		edges: map[State][]State{
			RunStarted:               {RunManufacturingAdvanced, RunTransferPropagated, RunDeliveryCreated, RunBranchSkipped, RunFailed},
			RunManufacturingAdvanced: {RunInventoryAdjusted, RunFailed},
			RunTransferPropagated:    {RunInventoryAdjusted, RunFailed},
			RunDeliveryCreated:       {RunInventoryAdjusted, RunFailed},
			RunBranchSkipped:         {RunInventoryAdjusted, RunFailed},
			RunInventoryAdjusted:     {RunDone, RunFailed},
			RunFailed:                {RunStarted},
		},
	},
}

// InvalidTransitionError describe una transición no presente en el grafo.
// errors.Is(err, domain.ErrInvalidTransition) es verdadero.
type InvalidTransitionError struct {
	Type DocumentType
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s no puede pasar de %q a %q", domain.ErrInvalidTransition, e.Type, e.From, e.To)
}

// Is permite comparar contra domain.ErrInvalidTransition.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == domain.ErrInvalidTransition
}

// StatesFor devuelve los estados válidos del tipo, en orden del ciclo de vida.
func StatesFor(t DocumentType) []State {
	m, ok := registry[t]
	if !ok {
		return nil
	}
	out := make([]State, len(m.states))
	copy(out, m.states)
	return out
}

// Edges devuelve una copia del grafo de transiciones del tipo.
func Edges(t DocumentType) map[State][]State {
	m, ok := registry[t]
	if !ok {
		return nil
	}
	out := make(map[State][]State, len(m.edges))
	for from, to := range m.edges {
		out[from] = append([]State(nil), to...)
	}
	return out
}

// IsMember indica si el estado pertenece al conjunto del tipo.
func IsMember(t DocumentType, s State) bool {
	m, ok := registry[t]
	if !ok {
		return false
	}
	for _, st := range m.states {
		if st == s {
			return true
		}
	}
	return false
}

// IsTerminal indica si el estado es miembro del tipo y no tiene transiciones de salida.
func IsTerminal(t DocumentType, s State) bool {
	if !IsMember(t, s) {
		return false
	}
	return len(registry[t].edges[s]) == 0
}

// CanTransition indica si from → to está en el grafo del tipo.
func CanTransition(t DocumentType, from, to State) bool {
	m, ok := registry[t]
	if !ok {
		return false
	}
	for _, next := range m.edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition devuelve *InvalidTransitionError si from → to no está permitido.
func ValidateTransition(t DocumentType, from, to State) error {
	if !CanTransition(t, from, to) {
		return &InvalidTransitionError{Type: t, From: from, To: to}
	}
	return nil
}

// Parse convierte la cadena del cable en un State del tipo.
// Normaliza a NFC: los diacríticos vietnamitas pueden llegar descompuestos.
func Parse(t DocumentType, raw string) (State, error) {
	s := State(norm.NFC.String(strings.TrimSpace(raw)))
	if !IsMember(t, s) {
		return "", fmt.Errorf("%w: estado %q desconocido para %s", domain.ErrInvalidInput, raw, t)
	}
	return s, nil
}

// Normalize devuelve el estado del cable en NFC sin verificar pertenencia.
// Se usa al leer documentos remotos, donde un estado desconocido no debe romper la lectura.
func Normalize(raw string) State {
	return State(norm.NFC.String(strings.TrimSpace(raw)))
}

// ReadyState devuelve el estado "listo para ejecutar" de cada tipo de ticket.
func ReadyState(t DocumentType) (State, error) {
	switch t {
	case TypeIssueTicket, TypeTransferTicket:
		return AwaitingIssue, nil
	case TypeReceiveTicket:
		return AwaitingReceipt, nil
	}
	return "", fmt.Errorf("%w: %s no es un ticket de bodega", domain.ErrInvalidInput, t)
}

// QuotationOutcomeForRFQ traduce el resultado de una cotización al token equivalente del RFQ.
func QuotationOutcomeForRFQ(s State) (State, bool) {
	switch s {
	case Accepted:
		return RFQAccepted, true
	case Rejected:
		return RFQRejected, true
	}
	return "", false
}

// AsInvalidTransition extrae el detalle de una transición inválida, si lo hay.
func AsInvalidTransition(err error) (*InvalidTransitionError, bool) {
	var ite *InvalidTransitionError
	if errors.As(err, &ite) {
		return ite, true
	}
	return nil, false
}
