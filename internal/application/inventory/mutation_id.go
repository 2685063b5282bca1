package inventory

import (
	"fmt"

	"github.com/google/uuid"
)

// mutationNamespace espacio UUIDv5 de las mutaciones de inventario de este servicio.
var mutationNamespace = uuid.MustParse("6f1c2a8e-4b7d-5e93-a0c4-92d8e1f3b7a5")

// MutationID devuelve un id determinístico para la mutación kind de la línea line del ticket.
// La misma terna produce siempre el mismo id, así un reintento no se aplica dos veces en servidores que deduplican.
func MutationID(ticketID string, line int, kind string) string {
	return uuid.NewSHA1(mutationNamespace, []byte(fmt.Sprintf("%s/%d/%s", ticketID, line, kind))).String()
}
