package ticket

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/scm-fulfillment/internal/application/fulfillment"
	"github.com/jhoicas/scm-fulfillment/internal/application/inventory"
	"github.com/jhoicas/scm-fulfillment/internal/application/ports"
	"github.com/jhoicas/scm-fulfillment/internal/domain"
	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
	"github.com/jhoicas/scm-fulfillment/internal/domain/repository"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
	"github.com/jhoicas/scm-fulfillment/pkg/logger"
)

// IssueFulfiller ejecuta la cascada de un ticket de salida. Lo implementa fulfillment.Orchestrator.
type IssueFulfiller interface {
	FulfillIssueTicket(ctx context.Context, ticket *entity.Ticket) (*fulfillment.Result, error)
}

// Outcome resultado de Execute. Fulfillment aplica a salidas y traslados; Stock a entradas.
type Outcome struct {
	Ticket      *entity.Ticket
	Issue       *entity.Ticket // ticket de salida creado al ejecutar un traslado
	Fulfillment *fulfillment.Result
	Stock       []inventory.MutationResult
}

// Partial indica que el ticket quedó ejecutado pero algún efecto secundario falló.
func (o *Outcome) Partial() bool {
	if o.Fulfillment != nil && len(o.Fulfillment.Failed()) > 0 {
		return true
	}
	for _, r := range o.Stock {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// UseCase máquina de estados de tickets de bodega (salida, entrada, traslado).
type UseCase struct {
	tickets   repository.TicketRepository
	fulfiller IssueFulfiller
	ledger    *inventory.LedgerUseCase
	metrics   ports.Metrics
	log       *logger.Logger
	now       func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	tickets repository.TicketRepository,
	fulfiller IssueFulfiller,
	ledger *inventory.LedgerUseCase,
	metrics ports.Metrics,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		tickets:   tickets,
		fulfiller: fulfiller,
		ledger:    ledger,
		metrics:   metrics,
		log:       log.Component("ticket"),
		now:       time.Now,
	}
}

// Confirm pasa el ticket de Chờ xác nhận a su estado listo y reenvía el ticket completo.
// Un ticket ya confirmado se rechaza con InvalidTransitionError sin llamar a la API.
func (uc *UseCase) Confirm(ctx context.Context, t *entity.Ticket) (*entity.Ticket, error) {
	if err := validate(t); err != nil {
		return nil, err
	}
	ready, err := status.ReadyState(t.Type)
	if err != nil {
		return nil, err
	}
	if err := status.ValidateTransition(t.Type, t.Status, ready); err != nil {
		return nil, err
	}
	return uc.replace(ctx, t, ready)
}

// Cancel anula un traslado que aún no se confirmó.
func (uc *UseCase) Cancel(ctx context.Context, t *entity.Ticket) (*entity.Ticket, error) {
	if err := validate(t); err != nil {
		return nil, err
	}
	if t.Type != status.TypeTransferTicket {
		return nil, fmt.Errorf("%w: solo se cancelan traslados", domain.ErrInvalidInput)
	}
	if err := status.ValidateTransition(t.Type, t.Status, status.Cancelled); err != nil {
		return nil, err
	}
	return uc.replace(ctx, t, status.Cancelled)
}

// Execute ejecuta un ticket en su estado listo.
//   - salida: cascada completa del orquestador.
//   - traslado: crea la salida en la bodega origen y la despacha.
//   - entrada: completa el ticket y suma la existencia; si viene de un traslado, lo cierra.
func (uc *UseCase) Execute(ctx context.Context, t *entity.Ticket) (*Outcome, error) {
	if err := validate(t); err != nil {
		return nil, err
	}
	switch t.Type {
	case status.TypeIssueTicket:
		res, err := uc.fulfiller.FulfillIssueTicket(ctx, t)
		if err != nil {
			return nil, err
		}
		done := t.Clone()
		done.Status = status.Completed
		return &Outcome{Ticket: done, Fulfillment: res}, nil
	case status.TypeTransferTicket:
		return uc.executeTransfer(ctx, t)
	case status.TypeReceiveTicket:
		return uc.executeReceive(ctx, t)
	}
	return nil, fmt.Errorf("%w: tipo %s", domain.ErrInvalidInput, t.Type)
}

// ConfirmByID lee el ticket y aplica Confirm.
func (uc *UseCase) ConfirmByID(ctx context.Context, ticketType status.DocumentType, id string) (*entity.Ticket, error) {
	t, err := uc.load(ctx, ticketType, id)
	if err != nil {
		return nil, err
	}
	return uc.Confirm(ctx, t)
}

// CancelByID lee el ticket y aplica Cancel.
func (uc *UseCase) CancelByID(ctx context.Context, ticketType status.DocumentType, id string) (*entity.Ticket, error) {
	t, err := uc.load(ctx, ticketType, id)
	if err != nil {
		return nil, err
	}
	return uc.Cancel(ctx, t)
}

// ExecuteByID lee el ticket y aplica Execute.
func (uc *UseCase) ExecuteByID(ctx context.Context, ticketType status.DocumentType, id string) (*Outcome, error) {
	t, err := uc.load(ctx, ticketType, id)
	if err != nil {
		return nil, err
	}
	return uc.Execute(ctx, t)
}

func (uc *UseCase) executeTransfer(ctx context.Context, transfer *entity.Ticket) (*Outcome, error) {
	if err := status.ValidateTransition(transfer.Type, transfer.Status, status.AwaitingReceipt); err != nil {
		return nil, err
	}
	issue := &entity.Ticket{
		Type:          status.TypeIssueTicket,
		Status:        status.AwaitingIssue,
		WarehouseID:   transfer.FromWarehouseID,
		Origin:        entity.OriginTransfer,
		ReferenceID:   transfer.ID,
		ReferenceCode: transfer.Code,
		CreatedBy:     transfer.CreatedBy,
		Details:       make([]entity.TicketDetail, len(transfer.Details)),
	}
	for i, d := range transfer.Details {
		issue.Details[i] = entity.TicketDetail{ItemID: d.ItemID, Quantity: d.EffectiveQuantity(), Note: d.Note}
	}
	created, err := uc.tickets.Create(ctx, issue)
	if err != nil {
		return nil, fmt.Errorf("crear ticket de salida para traslado %s: %w", transfer.ID, err)
	}
	created.Type = status.TypeIssueTicket

	uc.log.Info().Str("transfer_id", transfer.ID).Str("issue_id", created.ID).Msg("salida creada para traslado")

	res, err := uc.fulfiller.FulfillIssueTicket(ctx, created)
	if err != nil {
		return nil, fmt.Errorf("despachar salida %s del traslado %s: %w", created.ID, transfer.ID, err)
	}
	out := transfer.Clone()
	if step, ok := res.Step(fulfillment.StepTransferTicket); ok && step.Outcome == entity.StepOK {
		out.Status = status.AwaitingReceipt
	}
	created.Status = status.Completed
	return &Outcome{Ticket: out, Issue: created, Fulfillment: res}, nil
}

func (uc *UseCase) executeReceive(ctx context.Context, t *entity.Ticket) (*Outcome, error) {
	if err := status.ValidateTransition(t.Type, t.Status, status.Completed); err != nil {
		return nil, err
	}
	c := t.Clone()
	now := uc.now()
	c.Status = status.Completed
	c.ReceiveDate = &now
	updated, err := uc.tickets.Update(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("completar ticket de entrada %s: %w", t.ID, err)
	}
	if updated == nil {
		updated = c
	}

	muts := make([]entity.StockMutation, len(t.Details))
	for i, d := range t.Details {
		muts[i] = entity.StockMutation{
			MutationID:  inventory.MutationID(string(t.Type)+":"+t.ID, i, entity.MutationQuantity),
			WarehouseID: t.WarehouseID,
			ItemID:      d.ItemID,
			Kind:        entity.MutationQuantity,
			Amount:      d.EffectiveQuantity(),
		}
	}
	results := uc.ledger.IncreaseAll(ctx, muts)
	for _, r := range results {
		if r.Err != nil {
			uc.log.Warn().Err(r.Err).Str("ticket_id", t.ID).Str("key", r.Mutation.Key()).
				Msg("no se pudo sumar la existencia")
		}
	}

	if t.Origin == entity.OriginTransfer && t.ReferenceID != "" {
		uc.closeTransfer(ctx, t)
	}
	return &Outcome{Ticket: updated, Stock: results}, nil
}

// closeTransfer pasa el traslado de origen a Đã hoàn thành. Las fallas solo se registran.
func (uc *UseCase) closeTransfer(ctx context.Context, receive *entity.Ticket) {
	fail := func(err error) {
		uc.metrics.PropagationFailed(string(status.TypeTransferTicket))
		uc.log.Warn().Err(err).Str("receive_id", receive.ID).Str("transfer_id", receive.ReferenceID).
			Msg("no se pudo cerrar el traslado")
	}
	transfer, err := uc.tickets.Get(ctx, status.TypeTransferTicket, receive.ReferenceID)
	if err != nil {
		fail(err)
		return
	}
	transfer.Type = status.TypeTransferTicket
	if err := status.ValidateTransition(transfer.Type, transfer.Status, status.Completed); err != nil {
		fail(err)
		return
	}
	c := transfer.Clone()
	c.Status = status.Completed
	if _, err := uc.tickets.Update(ctx, c); err != nil {
		fail(err)
	}
}

func (uc *UseCase) replace(ctx context.Context, t *entity.Ticket, to status.State) (*entity.Ticket, error) {
	c := t.Clone()
	c.Status = to
	updated, err := uc.tickets.Update(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("actualizar %s %s: %w", t.Type, t.ID, err)
	}
	if updated == nil {
		updated = c
	}
	uc.log.Info().Str("type", string(t.Type)).Str("id", t.ID).
		Str("from", string(t.Status)).Str("to", string(to)).Msg("ticket actualizado")
	return updated, nil
}

func (uc *UseCase) load(ctx context.Context, ticketType status.DocumentType, id string) (*entity.Ticket, error) {
	if !ticketType.IsTicket() {
		return nil, fmt.Errorf("%w: %s no es un ticket", domain.ErrInvalidInput, ticketType)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: id requerido", domain.ErrInvalidInput)
	}
	t, err := uc.tickets.Get(ctx, ticketType, id)
	if err != nil {
		return nil, err
	}
	t.Type = ticketType
	return t, nil
}

func validate(t *entity.Ticket) error {
	if t == nil {
		return fmt.Errorf("%w: ticket requerido", domain.ErrInvalidInput)
	}
	return t.Validate()
}
