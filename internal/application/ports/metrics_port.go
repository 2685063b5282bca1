package ports

import "time"

// Metrics define el puerto de salida para la instrumentación de los casos de uso.
// El adaptador Prometheus vive en infrastructure/metrics; NopMetrics sirve para tests.
type Metrics interface {
	// RunFinished cuenta una corrida del orquestador por origen y estado final.
	RunFinished(issueType, state string)
	// StepFinished cuenta el resultado de cada paso (ok, failed, skipped).
	StepFinished(step, outcome string)
	// PropagationFailed cuenta propagaciones best-effort fallidas (p.ej. cotización → RFQ).
	PropagationFailed(docType string)
	// LockWait registra cuánto se esperó por el lock de una fila de inventario.
	LockWait(d time.Duration)
	// APIRequest registra una llamada a la API remota.
	APIRequest(operation, outcome string, d time.Duration)
}

// NopMetrics implementación vacía de Metrics.
type NopMetrics struct{}

func (NopMetrics) RunFinished(string, string) {}
func (NopMetrics) StepFinished(string, string) {}
func (NopMetrics) PropagationFailed(string) {}
func (NopMetrics) LockWait(time.Duration) {}
func (NopMetrics) APIRequest(string, string, time.Duration) {}

var _ Metrics = NopMetrics{}
