package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
)

// ManufacturingOrder orden de producción que consume materia prima de bodega.
type ManufacturingOrder struct {
	ID            string
	Code          string
	Status        status.State
	ItemID        string
	Quantity      decimal.Decimal
	StartedOn     *time.Time
	LastUpdatedOn time.Time
	// Extra conserva los campos del cable que este servicio no interpreta.
	// La API remota reemplaza por valor, así que se reenvían tal cual.
	Extra map[string]json.RawMessage
}

// Process etapa del piso de producción de una orden.
type Process struct {
	ID         string
	OrderID    string
	Name       string
	StageOrder int
	Status     status.State
	StartedOn  *time.Time
	FinishedOn *time.Time
	Extra      map[string]json.RawMessage
}

// IsUnstarted indica si la etapa no ha comenzado.
func (p Process) IsUnstarted() bool {
	return p.StartedOn == nil && (p.Status == "" || p.Status == status.ProcessPending)
}
