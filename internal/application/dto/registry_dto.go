package dto

import "github.com/jhoicas/scm-fulfillment/internal/domain/status"

// RegistryResponse estados y transiciones de un tipo de documento, para pintar botones en la UI.
type RegistryResponse struct {
	Type     string              `json:"type"`
	States   []string            `json:"states"`
	Terminal []string            `json:"terminal"`
	Edges    map[string][]string `json:"edges"`
}

func NewRegistryResponse(t status.DocumentType) RegistryResponse {
	out := RegistryResponse{Type: string(t), Edges: map[string][]string{}}
	for _, s := range status.StatesFor(t) {
		out.States = append(out.States, string(s))
		if status.IsTerminal(t, s) {
			out.Terminal = append(out.Terminal, string(s))
		}
	}
	for from, tos := range status.Edges(t) {
		for _, to := range tos {
			out.Edges[string(from)] = append(out.Edges[string(from)], string(to))
		}
	}
	return out
}
