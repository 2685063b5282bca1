package fulfillment

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/scm-fulfillment/internal/domain"
	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
)

// step paso con nombre de una rama. Con skip no vacío se registra como skipped sin ejecutarse.
type step struct {
	name string
	skip string
	run  func(ctx context.Context) (detail string, err error)
}

// completeTicket reenvía el ticket completo en Đã hoàn thành con issueDate = ahora.
// Un ticket que ya llegó completado (respuesta perdida en un intento anterior) cuenta como aplicado.
func (o *Orchestrator) completeTicket(ctx context.Context, ticket *entity.Ticket) (string, error) {
	if ticket.Status == status.Completed {
		return "ticket ya completado", nil
	}
	if err := status.ValidateTransition(status.TypeIssueTicket, ticket.Status, status.Completed); err != nil {
		return "", err
	}
	c := ticket.Clone()
	now := o.now()
	c.Status = status.Completed
	c.IssueDate = &now
	if _, err := o.tickets.Update(ctx, c); err != nil {
		return "", err
	}
	return "", nil
}

// branch devuelve el estado de corrida que se alcanza si la rama termina sin fallas y sus pasos.
func (o *Orchestrator) branch(ticket *entity.Ticket) (status.State, []step) {
	ref := ticket.ReferenceID
	if ref == "" {
		return status.RunBranchSkipped, []step{{name: StepBranch, skip: "ticket sin referencia"}}
	}
	switch ticket.Origin {
	case entity.OriginManufacturing:
		return status.RunManufacturingAdvanced, []step{
			{name: StepManufacturingOrder, run: func(ctx context.Context) (string, error) { return o.advanceOrder(ctx, ref) }},
			{name: StepStartProcess, run: func(ctx context.Context) (string, error) { return o.startProcess(ctx, ref) }},
		}
	case entity.OriginTransfer:
		var transfer *entity.Ticket
		return status.RunTransferPropagated, []step{
			{name: StepTransferTicket, run: func(ctx context.Context) (string, error) {
				t, detail, err := o.propagateTransfer(ctx, ref)
				transfer = t
				return detail, err
			}},
			{name: StepReceiveTicket, run: func(ctx context.Context) (string, error) {
				if transfer == nil {
					t, err := o.tickets.Get(ctx, status.TypeTransferTicket, ref)
					if err != nil {
						return "", fmt.Errorf("leer traslado %s: %w", ref, err)
					}
					transfer = t
				}
				return o.createReceive(ctx, ticket, transfer)
			}},
		}
	case entity.OriginSales:
		return status.RunDeliveryCreated, []step{
			{name: StepSalesOrder, run: func(ctx context.Context) (string, error) { return o.advanceSalesOrder(ctx, ref) }},
			{name: StepDeliveryOrder, run: func(ctx context.Context) (string, error) { return o.createDelivery(ctx, ref) }},
		}
	}
	return status.RunBranchSkipped, []step{{name: StepBranch, skip: fmt.Sprintf("origen %q sin cascada", ticket.Origin)}}
}

// ── Sản xuất ───────────────────────────────────────────────────────────────

func (o *Orchestrator) advanceOrder(ctx context.Context, orderID string) (string, error) {
	order, err := o.manufacturing.GetOrder(ctx, orderID)
	if err != nil {
		return "", fmt.Errorf("leer orden de producción %s: %w", orderID, err)
	}
	if order.Status == status.InProduction {
		return "orden ya en producción", nil
	}
	if err := status.ValidateTransition(status.TypeManufacturingOrder, order.Status, status.InProduction); err != nil {
		return "", err
	}
	order.Status = status.InProduction
	if order.StartedOn == nil {
		now := o.now()
		order.StartedOn = &now
	}
	if _, err := o.manufacturing.UpdateOrder(ctx, order); err != nil {
		return "", fmt.Errorf("actualizar orden de producción %s: %w", orderID, err)
	}
	return "orden " + order.Code, nil
}

// startProcess inicia solo la primera etapa sin comenzar, por orden de etapa.
func (o *Orchestrator) startProcess(ctx context.Context, orderID string) (string, error) {
	processes, err := o.manufacturing.ListProcesses(ctx, orderID)
	if err != nil {
		return "", fmt.Errorf("listar etapas de %s: %w", orderID, err)
	}
	sorted := append([]entity.Process(nil), processes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StageOrder < sorted[j].StageOrder })

	for _, p := range sorted {
		if !p.IsUnstarted() {
			continue
		}
		from := p.Status
		if from == "" {
			from = status.ProcessPending
		}
		if err := status.ValidateTransition(status.TypeProcess, from, status.ProcessRunning); err != nil {
			return "", err
		}
		now := o.now()
		p.Status = status.ProcessRunning
		p.StartedOn = &now
		if _, err := o.manufacturing.UpdateProcess(ctx, &p); err != nil {
			return "", fmt.Errorf("iniciar etapa %s: %w", p.ID, err)
		}
		return "etapa " + p.ID, nil
	}
	return "sin etapas pendientes", nil
}

// ── Chuyển kho ─────────────────────────────────────────────────────────────

func (o *Orchestrator) propagateTransfer(ctx context.Context, transferID string) (*entity.Ticket, string, error) {
	transfer, err := o.tickets.Get(ctx, status.TypeTransferTicket, transferID)
	if err != nil {
		return nil, "", fmt.Errorf("leer traslado %s: %w", transferID, err)
	}
	transfer.Type = status.TypeTransferTicket
	if transfer.Status == status.AwaitingReceipt {
		return transfer, "traslado ya en espera de entrada", nil
	}
	if err := status.ValidateTransition(status.TypeTransferTicket, transfer.Status, status.AwaitingReceipt); err != nil {
		return nil, "", err
	}
	c := transfer.Clone()
	c.Status = status.AwaitingReceipt
	updated, err := o.tickets.Update(ctx, c)
	if err != nil {
		return nil, "", fmt.Errorf("actualizar traslado %s: %w", transferID, err)
	}
	if updated == nil {
		updated = c
	}
	return updated, "traslado " + transfer.Code, nil
}

// createReceive crea el ticket de entrada en la bodega destino con las cantidades despachadas.
func (o *Orchestrator) createReceive(ctx context.Context, issue, transfer *entity.Ticket) (string, error) {
	if transfer.ToWarehouseID == "" {
		return "", fmt.Errorf("%w: traslado %s sin bodega destino", domain.ErrInvalidInput, transfer.ID)
	}
	receive := &entity.Ticket{
		Type:          status.TypeReceiveTicket,
		Status:        status.AwaitingConfirmation,
		WarehouseID:   transfer.ToWarehouseID,
		Origin:        entity.OriginTransfer,
		ReferenceID:   transfer.ID,
		ReferenceCode: transfer.Code,
		CreatedBy:     issue.CreatedBy,
		Details:       make([]entity.TicketDetail, 0, len(issue.Details)),
	}
	for _, d := range issue.Details {
		receive.Details = append(receive.Details, entity.TicketDetail{
			ItemID:   d.ItemID,
			Quantity: d.EffectiveQuantity(),
			Note:     d.Note,
		})
	}
	created, err := o.tickets.Create(ctx, receive)
	if err != nil {
		return "", fmt.Errorf("crear ticket de entrada: %w", err)
	}
	return "ticket de entrada " + created.ID, nil
}

// ── Bán hàng ───────────────────────────────────────────────────────────────

func (o *Orchestrator) advanceSalesOrder(ctx context.Context, soID string) (string, error) {
	so, err := o.sales.GetSalesOrder(ctx, soID)
	if err != nil {
		return "", fmt.Errorf("leer orden de venta %s: %w", soID, err)
	}
	if so.Status == status.AwaitingShipment {
		return "orden de venta ya en espera de envío", nil
	}
	if err := status.ValidateTransition(status.TypeSalesOrder, so.Status, status.AwaitingShipment); err != nil {
		return "", err
	}
	if err := o.sales.UpdateSalesOrderStatus(ctx, so.ID, status.AwaitingShipment); err != nil {
		return "", fmt.Errorf("actualizar orden de venta %s: %w", soID, err)
	}
	return "orden de venta " + so.Code, nil
}

func (o *Orchestrator) createDelivery(ctx context.Context, soID string) (string, error) {
	do, err := o.sales.CreateDeliveryOrder(ctx, soID, status.AwaitingConfirmation)
	if err != nil {
		return "", fmt.Errorf("crear orden de despacho para %s: %w", soID, err)
	}
	return "orden de despacho " + do.ID, nil
}
