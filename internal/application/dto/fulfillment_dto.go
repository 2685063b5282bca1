package dto

import (
	"github.com/jhoicas/scm-fulfillment/internal/application/fulfillment"
)

// FulfillmentResponse bitácora de una corrida del orquestador.
type FulfillmentResponse struct {
	*fulfillment.Result
	Partial bool `json:"partial"`
}

// NewFulfillmentResponse envuelve el resultado agregando el indicador partial.
func NewFulfillmentResponse(r *fulfillment.Result) FulfillmentResponse {
	return FulfillmentResponse{Result: r, Partial: r.Partial()}
}
