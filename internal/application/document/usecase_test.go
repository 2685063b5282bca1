package document_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/scm-fulfillment/internal/application/document"
	"github.com/jhoicas/scm-fulfillment/internal/application/ports"
	"github.com/jhoicas/scm-fulfillment/internal/domain"
	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
	"github.com/jhoicas/scm-fulfillment/internal/infrastructure/memory"
	"github.com/jhoicas/scm-fulfillment/pkg/logger"
)

type propagationCounter struct {
	ports.NopMetrics
	mu     sync.Mutex
	failed map[string]int
}

func (p *propagationCounter) PropagationFailed(docType string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failed == nil {
		p.failed = map[string]int{}
	}
	p.failed[docType]++
}

func setup(t *testing.T) (*document.UseCase, *memory.Store, *propagationCounter) {
	t.Helper()
	store := memory.NewStore()
	store.PutDocument(&entity.Document{ID: "rfq-1", Type: status.TypeRFQ, Status: status.RFQQuoted})
	store.PutDocument(&entity.Document{ID: "q-1", Type: status.TypeQuotation, Status: status.Quoted, SourceID: "rfq-1"})
	store.PutDocument(&entity.Document{ID: "po-1", Type: status.TypePurchaseOrder, Status: status.AwaitingConfirmation})
	m := &propagationCounter{}
	return document.NewUseCase(store.Documents(), m, logger.Nop()), store, m
}

func TestTransition_CotizacionAceptadaPropagaAlRFQ(t *testing.T) {
	uc, store, m := setup(t)

	doc, err := uc.TransitionByID(context.Background(), status.TypeQuotation, "q-1", status.Accepted, "u-1")
	require.NoError(t, err)
	assert.Equal(t, status.Accepted, doc.Status)
	assert.Equal(t, "u-1", doc.UpdatedBy)

	rfq, _ := store.Document(status.TypeRFQ, "rfq-1")
	assert.Equal(t, status.RFQAccepted, rfq.Status)
	assert.Empty(t, m.failed)
}

func TestTransition_CotizacionRechazadaPropagaAlRFQ(t *testing.T) {
	uc, store, _ := setup(t)

	_, err := uc.TransitionByID(context.Background(), status.TypeQuotation, "q-1", status.Rejected, "u-1")
	require.NoError(t, err)

	rfq, _ := store.Document(status.TypeRFQ, "rfq-1")
	assert.Equal(t, status.RFQRejected, rfq.Status)
}

// La propagación es best-effort: su falla no cambia el resultado de la transición principal.
func TestTransition_FallaDePropagacionSeRegistraYNoSeDevuelve(t *testing.T) {
	uc, store, m := setup(t)
	store.FailOn(memory.OpGetDocument, errors.New("rfq no disponible"))

	q, ok := store.Document(status.TypeQuotation, "q-1")
	require.True(t, ok)

	doc, err := uc.Transition(context.Background(), q, status.Accepted, "u-1")
	require.NoError(t, err)
	assert.Equal(t, status.Accepted, doc.Status)

	stored, _ := store.Document(status.TypeQuotation, "q-1")
	assert.Equal(t, status.Accepted, stored.Status)
	rfq, _ := store.Document(status.TypeRFQ, "rfq-1")
	assert.Equal(t, status.RFQQuoted, rfq.Status)
	assert.Equal(t, 1, m.failed[string(status.TypeRFQ)])
}

// Un RFQ que ya no admite el resultado (p.ej. vencido) tampoco rompe la transición principal.
func TestTransition_RFQEnEstadoIncompatible(t *testing.T) {
	uc, store, m := setup(t)
	store.PutDocument(&entity.Document{ID: "rfq-1", Type: status.TypeRFQ, Status: status.RFQExpired})

	_, err := uc.TransitionByID(context.Background(), status.TypeQuotation, "q-1", status.Accepted, "u-1")
	require.NoError(t, err)

	rfq, _ := store.Document(status.TypeRFQ, "rfq-1")
	assert.Equal(t, status.RFQExpired, rfq.Status)
	assert.Equal(t, 1, m.failed[string(status.TypeRFQ)])
}

func TestTransition_CancelarCotizacionNoTocaElRFQ(t *testing.T) {
	uc, store, _ := setup(t)

	_, err := uc.TransitionByID(context.Background(), status.TypeQuotation, "q-1", status.Cancelled, "u-1")
	require.NoError(t, err)

	rfq, _ := store.Document(status.TypeRFQ, "rfq-1")
	assert.Equal(t, status.RFQQuoted, rfq.Status)
	assert.Equal(t, 1, store.Calls(memory.OpUpdateDocumentStatus))
}

func TestTransition_InvalidaNoLlamaALaAPI(t *testing.T) {
	uc, store, _ := setup(t)

	_, err := uc.TransitionByID(context.Background(), status.TypePurchaseOrder, "po-1", status.Completed, "u-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Zero(t, store.Calls(memory.OpUpdateDocumentStatus))

	po, _ := store.Document(status.TypePurchaseOrder, "po-1")
	assert.Equal(t, status.AwaitingConfirmation, po.Status)
}

func TestTransition_OrdenDeCompraCicloCompleto(t *testing.T) {
	uc, store, _ := setup(t)
	ctx := context.Background()

	for _, next := range []status.State{status.Confirmed, status.InTransit, status.AwaitingReceipt, status.Completed} {
		_, err := uc.TransitionByID(ctx, status.TypePurchaseOrder, "po-1", next, "u-1")
		require.NoError(t, err, "→ %s", next)
	}
	po, _ := store.Document(status.TypePurchaseOrder, "po-1")
	assert.True(t, po.IsTerminal())

	_, err := uc.TransitionByID(ctx, status.TypePurchaseOrder, "po-1", status.Cancelled, "u-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "un documento terminal no admite transiciones")
}

func TestTransition_TipoNoComercial(t *testing.T) {
	uc, _, _ := setup(t)
	_, err := uc.TransitionByID(context.Background(), status.TypeIssueTicket, "t-1", status.AwaitingIssue, "u-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTransitionByID_NoEncontrado(t *testing.T) {
	uc, _, _ := setup(t)
	_, err := uc.TransitionByID(context.Background(), status.TypeSalesOrder, "nope", status.Confirmed, "u-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
