package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Fields detalle por campo cuando Code es VALIDATION.
	Fields map[string]string `json:"fields,omitempty"`
}

// HealthResponse estado del servicio y de sus dependencias.
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks,omitempty"`
}
