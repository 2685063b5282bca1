package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/scm-fulfillment/internal/application/inventory"
	"github.com/jhoicas/scm-fulfillment/internal/application/ports"
	"github.com/jhoicas/scm-fulfillment/internal/domain"
	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
	"github.com/jhoicas/scm-fulfillment/internal/domain/repository"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
	"github.com/jhoicas/scm-fulfillment/pkg/logger"
)

// Orchestrator coordina la cascada que dispara un ticket de salida completado:
//
//	complete_ticket → rama según issueType → inventario (todas las líneas, en paralelo)
//
// complete_ticket es el único paso fatal. Las fallas de la rama o del inventario no revierten
// el ticket: quedan en la bitácora y la corrida termina en failed con el primer paso fallido.
// Retry reanuda una corrida fallida sin repetir los pasos que ya quedaron en ok. Una corrida que
// quedó en curso sin actividad por más de staleAfter se considera abandonada y también se reanuda.
type Orchestrator struct {
	tickets       repository.TicketRepository
	manufacturing repository.ManufacturingRepository
	sales         repository.SalesRepository
	ledger        *inventory.LedgerUseCase
	runs          repository.FulfillmentLogRepository
	metrics       ports.Metrics
	log           *logger.Logger
	now           func() time.Time
	staleAfter    time.Duration
}

// DefaultStaleAfter plazo sin actividad tras el cual una corrida en curso se da por abandonada.
const DefaultStaleAfter = 5 * time.Minute

// Option ajusta el orquestador.
type Option func(*Orchestrator)

// WithStaleAfter fija el plazo de abandono. d <= 0 desactiva la toma de corridas en curso.
func WithStaleAfter(d time.Duration) Option {
	return func(o *Orchestrator) { o.staleAfter = d }
}

// NewOrchestrator construye el orquestador con todas sus dependencias.
func NewOrchestrator(
	tickets repository.TicketRepository,
	manufacturing repository.ManufacturingRepository,
	sales repository.SalesRepository,
	ledger *inventory.LedgerUseCase,
	runs repository.FulfillmentLogRepository,
	metrics ports.Metrics,
	log *logger.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		tickets:       tickets,
		manufacturing: manufacturing,
		sales:         sales,
		ledger:        ledger,
		runs:          runs,
		metrics:       metrics,
		log:           log.Component("fulfillment"),
		now:           time.Now,
		staleAfter:    DefaultStaleAfter,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// FulfillIssueTicket ejecuta la cascada para un ticket de salida en Chờ xuất kho.
// Si el ticket ya tiene corrida: terminada → domain.ErrAlreadyFulfilled, fallida o abandonada →
// se reanuda, en curso → domain.ErrFulfillmentInProgress.
func (o *Orchestrator) FulfillIssueTicket(ctx context.Context, ticket *entity.Ticket) (*Result, error) {
	if ticket == nil {
		return nil, fmt.Errorf("%w: ticket requerido", domain.ErrInvalidInput)
	}
	if ticket.Type != status.TypeIssueTicket {
		return nil, fmt.Errorf("%w: solo se despachan tickets de salida, recibido %s", domain.ErrInvalidInput, ticket.Type)
	}
	if err := ticket.Validate(); err != nil {
		return nil, err
	}

	existing, err := o.runs.Get(ctx, ticket.ID)
	switch {
	case err == nil:
		return o.resumeExisting(ctx, existing, ticket)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("leer bitácora de %s: %w", ticket.ID, err)
	}

	if err := status.ValidateTransition(status.TypeIssueTicket, ticket.Status, status.Completed); err != nil {
		return nil, err
	}

	now := o.now()
	run := &entity.FulfillmentRun{
		TicketID:   ticket.ID,
		TicketCode: ticket.Code,
		RunID:      uuid.NewString(),
		IssueType:  ticket.Origin,
		State:      status.RunStarted,
		Attempts:   1,
		StartedAt:  now,
		UpdatedAt:  now,
	}
	if err := o.runs.Begin(ctx, run); err != nil {
		return nil, err
	}
	return o.execute(ctx, ticket, run)
}

// Retry reanuda la corrida fallida del ticket. Los pasos en ok no se repiten.
func (o *Orchestrator) Retry(ctx context.Context, ticketID string) (*Result, error) {
	if ticketID == "" {
		return nil, fmt.Errorf("%w: id de ticket requerido", domain.ErrInvalidInput)
	}
	existing, err := o.runs.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ticket, err := o.tickets.Get(ctx, status.TypeIssueTicket, ticketID)
	if err != nil {
		return nil, fmt.Errorf("leer ticket %s: %w", ticketID, err)
	}
	ticket.Type = status.TypeIssueTicket
	if err := ticket.Validate(); err != nil {
		return nil, err
	}
	return o.resumeExisting(ctx, existing, ticket)
}

// Run devuelve la bitácora del ticket.
func (o *Orchestrator) Run(ctx context.Context, ticketID string) (*Result, error) {
	run, err := o.runs.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return ResultFromRun(run), nil
}

func (o *Orchestrator) resumeExisting(ctx context.Context, existing *entity.FulfillmentRun, ticket *entity.Ticket) (*Result, error) {
	staleBefore := o.staleBefore()
	switch {
	case existing.State == status.RunDone:
		return nil, domain.ErrAlreadyFulfilled
	case !existing.Resumable(staleBefore):
		return nil, domain.ErrFulfillmentInProgress
	}
	if existing.State != status.RunFailed {
		o.log.Warn().Str("ticket_id", ticket.ID).Str("run_id", existing.RunID).Str("state", string(existing.State)).
			Time("updated_at", existing.UpdatedAt).Msg("tomando corrida abandonada")
	}
	run, err := o.runs.Resume(ctx, ticket.ID, staleBefore)
	if err != nil {
		return nil, err
	}
	o.log.Info().Str("ticket_id", ticket.ID).Str("run_id", run.RunID).Int("attempt", run.Attempts).
		Msg("reanudando corrida")
	return o.execute(ctx, ticket, run)
}

func (o *Orchestrator) staleBefore() time.Time {
	if o.staleAfter <= 0 {
		return time.Time{}
	}
	return o.now().Add(-o.staleAfter)
}

func (o *Orchestrator) execute(ctx context.Context, ticket *entity.Ticket, run *entity.FulfillmentRun) (*Result, error) {
	// ═══════════════════════════════════════════════════════════════════════════
	// 1. Completar el ticket de salida (fatal)
	// ═══════════════════════════════════════════════════════════════════════════
	if !run.Succeeded(StepCompleteTicket) {
		detail, err := o.completeTicket(ctx, ticket)
		o.record(run, StepCompleteTicket, detail, err)
		if err != nil {
			o.markFailed(run, StepCompleteTicket)
			o.advance(run, status.RunFailed)
			_ = o.finish(ctx, run)
			return nil, fmt.Errorf("completar ticket %s: %w", ticket.ID, err)
		}
		_ = o.save(ctx, run)
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 2. Rama según el origen del ticket
	// ═══════════════════════════════════════════════════════════════════════════
	branchState, steps := o.branch(ticket)
	if o.runSteps(ctx, run, steps) {
		o.advance(run, branchState)
	}
	_ = o.save(ctx, run)

	// ═══════════════════════════════════════════════════════════════════════════
	// 3. Inventario: dos mutaciones por línea, en paralelo
	// ═══════════════════════════════════════════════════════════════════════════
	o.adjustInventory(ctx, run, ticket)

	if run.FailedStep == "" {
		o.advance(run, status.RunInventoryAdjusted)
		o.advance(run, status.RunDone)
	} else {
		o.advance(run, status.RunFailed)
	}
	// Sin bitácora guardada el resultado no es confiable: la fila sigue en curso.
	if err := o.finish(ctx, run); err != nil {
		return nil, err
	}
	return ResultFromRun(run), nil
}

// runSteps ejecuta los pasos en orden. Tras la primera falla los siguientes quedan skipped.
// Devuelve true si ningún paso falló.
func (o *Orchestrator) runSteps(ctx context.Context, run *entity.FulfillmentRun, steps []step) bool {
	ok := true
	for _, s := range steps {
		if run.Succeeded(s.name) {
			continue
		}
		if !ok {
			o.skip(run, s.name, "paso anterior de la rama falló")
			continue
		}
		if s.skip != "" {
			o.skip(run, s.name, s.skip)
			continue
		}
		detail, err := s.run(ctx)
		o.record(run, s.name, detail, err)
		if err != nil {
			o.markFailed(run, s.name)
			ok = false
		}
	}
	return ok
}

func (o *Orchestrator) adjustInventory(ctx context.Context, run *entity.FulfillmentRun, ticket *entity.Ticket) {
	var (
		muts  []entity.StockMutation
		names []string
	)
	for i, d := range ticket.Details {
		for _, kind := range []string{entity.MutationQuantity, entity.MutationOnDemand} {
			name := InventoryStep(i, kind)
			if run.Succeeded(name) {
				continue
			}
			muts = append(muts, entity.StockMutation{
				MutationID:  inventory.MutationID(ticket.ID, i, kind),
				WarehouseID: ticket.WarehouseID,
				ItemID:      d.ItemID,
				Kind:        kind,
				Amount:      d.EffectiveQuantity(),
			})
			names = append(names, name)
		}
	}

	for i, r := range o.ledger.DecreaseAll(ctx, muts) {
		o.record(run, names[i], fmt.Sprintf("%s -%s", r.Mutation.Key(), r.Mutation.Amount), r.Err)
		if r.Err != nil {
			o.markFailed(run, names[i])
		}
	}
}

func (o *Orchestrator) record(run *entity.FulfillmentRun, name, detail string, err error) {
	rec := entity.StepRecord{Name: name, Outcome: entity.StepOK, Detail: detail, At: o.now()}
	if err != nil {
		rec.Outcome = entity.StepFailed
		rec.Error = err.Error()
		o.log.Warn().Err(err).Str("ticket_id", run.TicketID).Str("run_id", run.RunID).Str("step", name).
			Msg("paso fallido")
	} else {
		o.log.Debug().Str("ticket_id", run.TicketID).Str("run_id", run.RunID).Str("step", name).
			Str("detail", detail).Msg("paso aplicado")
	}
	run.Record(rec)
	o.metrics.StepFinished(name, rec.Outcome)
}

func (o *Orchestrator) skip(run *entity.FulfillmentRun, name, reason string) {
	run.Record(entity.StepRecord{Name: name, Outcome: entity.StepSkipped, Detail: reason, At: o.now()})
	o.metrics.StepFinished(name, entity.StepSkipped)
}

// markFailed conserva el primer paso fallido del intento.
func (o *Orchestrator) markFailed(run *entity.FulfillmentRun, name string) {
	if run.FailedStep == "" {
		run.FailedStep = name
	}
}

func (o *Orchestrator) advance(run *entity.FulfillmentRun, to status.State) {
	if err := status.ValidateTransition(status.TypeFulfillmentRun, run.State, to); err != nil {
		o.log.Error().Err(err).Str("ticket_id", run.TicketID).Msg("transición de corrida inválida")
		return
	}
	run.State = to
	run.UpdatedAt = o.now()
}

// save guarda un punto de control. Una falla aquí se registra y la corrida sigue.
func (o *Orchestrator) save(ctx context.Context, run *entity.FulfillmentRun) error {
	if err := o.runs.Save(ctx, run); err != nil {
		o.log.Error().Err(err).Str("ticket_id", run.TicketID).Str("run_id", run.RunID).
			Msg("no se pudo guardar la bitácora")
		return fmt.Errorf("guardar bitácora de %s: %w", run.TicketID, err)
	}
	return nil
}

func (o *Orchestrator) finish(ctx context.Context, run *entity.FulfillmentRun) error {
	now := o.now()
	run.FinishedAt = &now
	run.UpdatedAt = now
	if err := o.save(ctx, run); err != nil {
		return err
	}
	o.metrics.RunFinished(string(run.IssueType), string(run.State))

	ev := o.log.Info()
	if run.State == status.RunFailed {
		ev = o.log.Warn().Str("failed_step", run.FailedStep)
	}
	ev.Str("ticket_id", run.TicketID).Str("run_id", run.RunID).Str("issue_type", string(run.IssueType)).
		Str("state", string(run.State)).Int("attempt", run.Attempts).Msg("corrida terminada")
	return nil
}
