package fulfillment

import (
	"fmt"
	"time"

	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
)

// Nombres de los pasos del orquestador. Los de inventario se arman con InventoryStep.
const (
	StepCompleteTicket     = "complete_ticket"
	StepBranch             = "branch"
	StepManufacturingOrder = "manufacturing_order"
	StepStartProcess       = "start_process"
	StepTransferTicket     = "transfer_ticket"
	StepReceiveTicket      = "receive_ticket"
	StepSalesOrder         = "sales_order"
	StepDeliveryOrder      = "delivery_order"
)

// InventoryStep nombre del paso de la mutación kind sobre la línea line.
func InventoryStep(line int, kind string) string {
	return fmt.Sprintf("inventory[%d].%s", line, kind)
}

// StepResult resultado de un paso tal como quedó en la bitácora.
type StepResult struct {
	Name     string    `json:"name"`
	Outcome  string    `json:"outcome"`
	Error    string    `json:"error,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	Attempts int       `json:"attempts"`
	At       time.Time `json:"at"`
}

// Result resultado de una corrida del orquestador.
type Result struct {
	TicketID   string       `json:"ticket_id"`
	TicketCode string       `json:"ticket_code,omitempty"`
	RunID      string       `json:"run_id"`
	IssueType  string       `json:"issue_type"`
	State      status.State `json:"state"`
	FailedStep string       `json:"failed_step,omitempty"`
	Attempts   int          `json:"attempts"`
	Steps      []StepResult `json:"steps"`
}

// Failed devuelve los pasos fallidos.
func (r *Result) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Outcome == entity.StepFailed {
			out = append(out, s)
		}
	}
	return out
}

// Partial indica que el ticket quedó completado pero la cascada no se aplicó entera.
func (r *Result) Partial() bool {
	if len(r.Failed()) == 0 {
		return false
	}
	for _, s := range r.Steps {
		if s.Name == StepCompleteTicket {
			return s.Outcome == entity.StepOK
		}
	}
	return false
}

// Step devuelve el paso con ese nombre.
func (r *Result) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// ResultFromRun arma el Result a partir de la corrida persistida.
func ResultFromRun(run *entity.FulfillmentRun) *Result {
	res := &Result{
		TicketID:   run.TicketID,
		TicketCode: run.TicketCode,
		RunID:      run.RunID,
		IssueType:  string(run.IssueType),
		State:      run.State,
		FailedStep: run.FailedStep,
		Attempts:   run.Attempts,
		Steps:      make([]StepResult, len(run.Steps)),
	}
	for i, s := range run.Steps {
		res.Steps[i] = StepResult{
			Name:     s.Name,
			Outcome:  s.Outcome,
			Error:    s.Error,
			Detail:   s.Detail,
			Attempts: s.Attempts,
			At:       s.At,
		}
	}
	return res
}
