package document

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/scm-fulfillment/internal/application/ports"
	"github.com/jhoicas/scm-fulfillment/internal/domain"
	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
	"github.com/jhoicas/scm-fulfillment/internal/domain/repository"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
	"github.com/jhoicas/scm-fulfillment/pkg/logger"
)

// UseCase máquina de estados de documentos comerciales (RFQ, cotización, PO, SO).
type UseCase struct {
	repo    repository.DocumentRepository
	metrics ports.Metrics
	log     *logger.Logger
	now     func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(repo repository.DocumentRepository, metrics ports.Metrics, log *logger.Logger) *UseCase {
	return &UseCase{repo: repo, metrics: metrics, log: log.Component("document"), now: time.Now}
}

// TransitionByID lee el documento y aplica Transition.
func (uc *UseCase) TransitionByID(ctx context.Context, docType status.DocumentType, id string, target status.State, actor string) (*entity.Document, error) {
	if !docType.IsCommercial() {
		return nil, fmt.Errorf("%w: %s no es un documento comercial", domain.ErrInvalidInput, docType)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: id requerido", domain.ErrInvalidInput)
	}
	doc, err := uc.repo.Get(ctx, docType, id)
	if err != nil {
		return nil, err
	}
	doc.Type = docType
	return uc.Transition(ctx, doc, target, actor)
}

// Transition valida target contra el registro y persiste el nuevo estado.
// Para cotizaciones aceptadas o rechazadas propaga el resultado al RFQ de origen sin afectar el retorno.
func (uc *UseCase) Transition(ctx context.Context, doc *entity.Document, target status.State, actor string) (*entity.Document, error) {
	if doc == nil || doc.ID == "" {
		return nil, fmt.Errorf("%w: documento requerido", domain.ErrInvalidInput)
	}
	if !doc.Type.IsCommercial() {
		return nil, fmt.Errorf("%w: %s no es un documento comercial", domain.ErrInvalidInput, doc.Type)
	}
	if err := status.ValidateTransition(doc.Type, doc.Status, target); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateStatus(ctx, doc.Type, doc.ID, target); err != nil {
		return nil, fmt.Errorf("actualizar estado de %s %s: %w", doc.Type, doc.ID, err)
	}

	out := *doc
	out.Items = append([]entity.DocumentItem(nil), doc.Items...)
	out.Status = target
	out.UpdatedBy = actor
	out.LastUpdatedOn = uc.now()

	uc.log.Info().
		Str("type", string(doc.Type)).
		Str("id", doc.ID).
		Str("from", string(doc.Status)).
		Str("to", string(target)).
		Str("actor", actor).
		Msg("transición aplicada")

	if doc.Type == status.TypeQuotation {
		uc.propagateToRFQ(ctx, &out)
	}
	return &out, nil
}

// propagateToRFQ aplica al RFQ el mismo resultado de la cotización. Las fallas solo se registran.
func (uc *UseCase) propagateToRFQ(ctx context.Context, quotation *entity.Document) {
	rfqState, ok := status.QuotationOutcomeForRFQ(quotation.Status)
	if !ok || quotation.SourceID == "" {
		return
	}
	fail := func(err error) {
		uc.metrics.PropagationFailed(string(status.TypeRFQ))
		uc.log.Warn().Err(err).
			Str("quotation_id", quotation.ID).
			Str("rfq_id", quotation.SourceID).
			Str("target", string(rfqState)).
			Msg("no se pudo propagar el resultado de la cotización al RFQ")
	}

	rfq, err := uc.repo.Get(ctx, status.TypeRFQ, quotation.SourceID)
	if err != nil {
		fail(err)
		return
	}
	if err := status.ValidateTransition(status.TypeRFQ, rfq.Status, rfqState); err != nil {
		fail(err)
		return
	}
	if err := uc.repo.UpdateStatus(ctx, status.TypeRFQ, rfq.ID, rfqState); err != nil {
		fail(err)
		return
	}
	uc.log.Debug().Str("rfq_id", rfq.ID).Str("to", string(rfqState)).Msg("RFQ actualizado desde cotización")
}
