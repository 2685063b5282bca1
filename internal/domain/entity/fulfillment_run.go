package entity

import (
	"time"

	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
)

// Resultados posibles de un paso del orquestador.
const (
	StepOK      = "ok"
	StepFailed  = "failed"
	StepSkipped = "skipped"
)

// StepRecord resultado persistido de un paso.
type StepRecord struct {
	Name     string    `json:"name"`
	Outcome  string    `json:"outcome"`
	Error    string    `json:"error,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	Attempts int       `json:"attempts"`
	At       time.Time `json:"at"`
}

// FulfillmentRun bitácora de orquestación, una por ticket de salida.
type FulfillmentRun struct {
	TicketID   string
	TicketCode string
	RunID      string
	IssueType  Origin
	State      status.State
	FailedStep string
	Steps      []StepRecord
	Attempts   int
	StartedAt  time.Time
	UpdatedAt  time.Time
	FinishedAt *time.Time
}

// Step devuelve el registro con ese nombre, si existe.
func (r *FulfillmentRun) Step(name string) (StepRecord, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepRecord{}, false
}

// Succeeded indica si el paso ya quedó aplicado en una corrida anterior.
func (r *FulfillmentRun) Succeeded(name string) bool {
	s, ok := r.Step(name)
	return ok && s.Outcome == StepOK
}

// Record agrega o reemplaza el registro del paso conservando el orden de primera aparición.
func (r *FulfillmentRun) Record(rec StepRecord) {
	for i, s := range r.Steps {
		if s.Name == rec.Name {
			rec.Attempts = s.Attempts + 1
			r.Steps[i] = rec
			return
		}
	}
	rec.Attempts = 1
	r.Steps = append(r.Steps, rec)
}

// Resumable indica si Resume puede tomar la corrida: fallida, o en curso sin actividad
// desde antes de staleBefore.
func (r *FulfillmentRun) Resumable(staleBefore time.Time) bool {
	switch r.State {
	case status.RunFailed:
		return true
	case status.RunDone:
		return false
	}
	return !staleBefore.IsZero() && r.UpdatedAt.Before(staleBefore)
}
