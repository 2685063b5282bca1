package http_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/scm-fulfillment/internal/application/document"
	"github.com/jhoicas/scm-fulfillment/internal/application/dto"
	"github.com/jhoicas/scm-fulfillment/internal/application/fulfillment"
	"github.com/jhoicas/scm-fulfillment/internal/application/inventory"
	"github.com/jhoicas/scm-fulfillment/internal/application/ports"
	"github.com/jhoicas/scm-fulfillment/internal/application/ticket"
	"github.com/jhoicas/scm-fulfillment/internal/domain"
	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
	"github.com/jhoicas/scm-fulfillment/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/scm-fulfillment/internal/interfaces/http"
	"github.com/jhoicas/scm-fulfillment/pkg/logger"
)

type apiFixture struct {
	app   *fiber.App
	store *memory.Store
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	runs := memory.NewFulfillmentLog()
	log := logger.Nop()
	metrics := ports.NopMetrics{}

	ledger := inventory.NewLedgerUseCase(store.Inventory(), inventory.NewLocalLocker(), metrics, log, 4)
	orch := fulfillment.NewOrchestrator(store.Tickets(), store.Manufacturing(), store.Sales(), ledger, runs, metrics, log)
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Documents:   document.NewUseCase(store.Documents(), metrics, log),
		Tickets:     ticket.NewUseCase(store.Tickets(), orch, ledger, metrics, log),
		Fulfillment: orch,
		Ledger:      ledger,
		Log:         log,
		JWTSecret:   testJWTSecret,
		JWTIssuer:   testIssuer,
	})
	return &apiFixture{app: app, store: store}
}

func (f *apiFixture) do(t *testing.T, method, path, role string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func decodeError(t *testing.T, body []byte) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e), string(body))
	return e
}

// seedSale siembra un ticket de salida por venta de 5 unidades y la orden de venta confirmada.
func (f *apiFixture) seedSale() {
	f.store.PutInventory(entity.InventoryRecord{
		WarehouseID: "W", ItemID: "I",
		Quantity: decimal.NewFromInt(50), OnDemandQuantity: decimal.NewFromInt(10),
	})
	f.store.PutSalesOrder(&entity.SalesOrder{ID: "42", Code: "SO42", Status: status.Confirmed})
	f.store.PutTicket(&entity.Ticket{
		ID: "t-1", Code: "PX-1", Type: status.TypeIssueTicket, Status: status.AwaitingIssue,
		WarehouseID: "W", Origin: entity.OriginSales, ReferenceID: "42",
		Details: []entity.TicketDetail{{ItemID: "I", Quantity: decimal.NewFromInt(5)}},
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Documentos
// ──────────────────────────────────────────────────────────────────────────────

func TestTransition_OrdenDeCompraConfirmada(t *testing.T) {
	f := newAPI(t)
	f.store.PutDocument(&entity.Document{ID: "po-1", Type: status.TypePurchaseOrder, Status: status.AwaitingConfirmation})

	resp, body := f.do(t, http.MethodPost, "/api/documents/purchase_order/po-1/transition", apphttp.RoleCompras,
		dto.TransitionRequest{TargetState: string(status.Confirmed)})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var doc dto.DocumentResponse
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, string(status.Confirmed), doc.Status)
	assert.Equal(t, testUserID, doc.UpdatedBy)

	stored, ok := f.store.Document(status.TypePurchaseOrder, "po-1")
	require.True(t, ok)
	assert.Equal(t, status.Confirmed, stored.Status)
}

func TestTransition_InvalidaResponde409SinLlamarALaAPI(t *testing.T) {
	f := newAPI(t)
	f.store.PutDocument(&entity.Document{ID: "po-1", Type: status.TypePurchaseOrder, Status: status.AwaitingConfirmation})

	resp, body := f.do(t, http.MethodPost, "/api/documents/purchase_order/po-1/transition", apphttp.RoleCompras,
		dto.TransitionRequest{TargetState: string(status.Completed)})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_TRANSITION", decodeError(t, body).Code)
	assert.Zero(t, f.store.Calls(memory.OpUpdateDocumentStatus))
}

func TestTransition_CuerpoInvalido(t *testing.T) {
	f := newAPI(t)
	cases := map[string]dto.TransitionRequest{
		"vacío":       {TargetState: "  "},
		"desconocido": {TargetState: "Enviado"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			resp, body := f.do(t, http.MethodPost, "/api/documents/quotation/q-1/transition", apphttp.RoleVendedor, in)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "VALIDATION", decodeError(t, body).Code)
		})
	}
	assert.Zero(t, f.store.Calls(memory.OpGetDocument), "la validación ocurre antes de cualquier lectura")
}

func TestTransition_TipoDesconocido(t *testing.T) {
	f := newAPI(t)
	resp, body := f.do(t, http.MethodPost, "/api/documents/invoice/1/transition", apphttp.RoleAdmin,
		dto.TransitionRequest{TargetState: string(status.Confirmed)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_TYPE", decodeError(t, body).Code)
}

func TestTransition_BodegueroNoPuede(t *testing.T) {
	f := newAPI(t)
	resp, _ := f.do(t, http.MethodPost, "/api/documents/purchase_order/po-1/transition", apphttp.RoleBodeguero,
		dto.TransitionRequest{TargetState: string(status.Confirmed)})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestTransition_ErrorRemotoResponde502(t *testing.T) {
	f := newAPI(t)
	f.store.FailOn(memory.OpGetDocument, fmt.Errorf("%w: timeout", domain.ErrUpstream))

	resp, body := f.do(t, http.MethodPost, "/api/documents/purchase_order/po-1/transition", apphttp.RoleAdmin,
		dto.TransitionRequest{TargetState: string(status.Confirmed)})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "UPSTREAM", decodeError(t, body).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tickets y despacho
// ──────────────────────────────────────────────────────────────────────────────

func TestExecute_SalidaPorVenta(t *testing.T) {
	f := newAPI(t)
	f.seedSale()

	resp, body := f.do(t, http.MethodPost, "/api/tickets/issue_ticket/t-1/execute", apphttp.RoleBodeguero, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out dto.ExecuteResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.False(t, out.Partial)
	require.NotNil(t, out.Fulfillment)
	assert.Equal(t, status.RunDone, out.Fulfillment.State)
	assert.Equal(t, string(status.Completed), out.Ticket.Status)
	assert.Len(t, f.store.DeliveryOrders(), 1)

	// La bitácora queda consultable.
	resp, body = f.do(t, http.MethodGet, "/api/fulfillments/t-1", apphttp.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var run dto.FulfillmentResponse
	require.NoError(t, json.Unmarshal(body, &run))
	assert.Equal(t, status.RunDone, run.State)

	// Inventario: 50/10 − 5 = 45/5.
	resp, body = f.do(t, http.MethodGet, "/api/inventory/W/I", apphttp.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rec dto.InventoryRecordResponse
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(45)), rec.Quantity.String())
	assert.True(t, rec.OnDemandQuantity.Equal(decimal.NewFromInt(5)), rec.OnDemandQuantity.String())

	// Un ticket ya completado no se vuelve a ejecutar.
	resp, _ = f.do(t, http.MethodPost, "/api/tickets/issue_ticket/t-1/execute", apphttp.RoleBodeguero, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestExecute_FallaDeInventarioEsParcialYSeReintenta(t *testing.T) {
	f := newAPI(t)
	f.seedSale()
	f.store.FailOn(memory.OpDecreaseOnDemand, errors.New("servicio de inventario caído"))

	resp, body := f.do(t, http.MethodPost, "/api/tickets/issue_ticket/t-1/execute", apphttp.RoleBodeguero, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out dto.ExecuteResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.True(t, out.Partial)
	require.NotNil(t, out.Fulfillment)
	assert.Equal(t, status.RunFailed, out.Fulfillment.State)
	assert.Equal(t, fulfillment.InventoryStep(0, entity.MutationOnDemand), out.Fulfillment.FailedStep)

	f.store.ClearFailure(memory.OpDecreaseOnDemand)
	resp, body = f.do(t, http.MethodPost, "/api/fulfillments/t-1/retry", apphttp.RoleBodeguero, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var retried dto.FulfillmentResponse
	require.NoError(t, json.Unmarshal(body, &retried))
	assert.Equal(t, status.RunDone, retried.State)
	assert.False(t, retried.Partial)
	assert.Equal(t, 1, f.store.Calls(memory.OpDecreaseQuantity), "la existencia ya descontada no se repite")

	resp, body = f.do(t, http.MethodPost, "/api/fulfillments/t-1/retry", apphttp.RoleBodeguero, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ALREADY_FULFILLED", decodeError(t, body).Code)
}

func TestConfirm_TicketDeEntrada(t *testing.T) {
	f := newAPI(t)
	f.store.PutTicket(&entity.Ticket{
		ID: "r-1", Type: status.TypeReceiveTicket, Status: status.AwaitingConfirmation, WarehouseID: "W",
	})
	resp, body := f.do(t, http.MethodPost, "/api/tickets/receive-ticket/r-1/confirm", apphttp.RoleBodeguero, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var tk dto.TicketResponse
	require.NoError(t, json.Unmarshal(body, &tk))
	assert.Equal(t, string(status.AwaitingReceipt), tk.Status)
}

func TestCancel_SalidaNoSePuedeCancelar(t *testing.T) {
	f := newAPI(t)
	f.seedSale()
	resp, _ := f.do(t, http.MethodPost, "/api/tickets/issue_ticket/t-1/cancel", apphttp.RoleBodeguero, nil)
	assert.GreaterOrEqual(t, resp.StatusCode, 400)
	assert.Less(t, resp.StatusCode, 500)
}

func TestFulfillment_NoEncontrada(t *testing.T) {
	f := newAPI(t)
	resp, body := f.do(t, http.MethodGet, "/api/fulfillments/nada", apphttp.RoleAdmin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, body).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Registro
// ──────────────────────────────────────────────────────────────────────────────

func TestRegistry(t *testing.T) {
	f := newAPI(t)
	resp, body := f.do(t, http.MethodGet, "/api/registry/transfer_ticket", apphttp.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reg dto.RegistryResponse
	require.NoError(t, json.Unmarshal(body, &reg))
	assert.Len(t, reg.States, 5)
	assert.Contains(t, reg.Edges[string(status.AwaitingConfirmation)], string(status.Cancelled))

	resp, _ = f.do(t, http.MethodGet, "/api/registry/invoice", apphttp.RoleVendedor, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRutasSinToken(t *testing.T) {
	f := newAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/api/registry/rfq", nil)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
