package entity

import (
	"time"

	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
)

// SalesOrder vista mínima de una orden de venta que necesita el orquestador.
type SalesOrder struct {
	ID     string
	Code   string
	Status status.State
}

// DeliveryOrder orden de despacho asociada a una orden de venta.
type DeliveryOrder struct {
	ID        string
	Code      string
	SOID      string
	Status    status.State
	CreatedOn time.Time
}
