package scmapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/scm-fulfillment/internal/application/ports"
	"github.com/jhoicas/scm-fulfillment/internal/domain"
	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
	"github.com/jhoicas/scm-fulfillment/internal/infrastructure/scmapi"
	"github.com/jhoicas/scm-fulfillment/pkg/logger"
)

func newClient(t *testing.T, h http.HandlerFunc, mod ...func(*scmapi.Config)) *scmapi.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := scmapi.Config{BaseURL: srv.URL, Token: "service-token", Timeout: 2 * time.Second, BreakerFailures: 5, BreakerTimeout: time.Minute}
	for _, m := range mod {
		m(&cfg)
	}
	return scmapi.New(cfg, ports.NopMetrics{}, logger.Nop())
}

func TestListProcesses_FormasDeLista(t *testing.T) {
	items := `[{"id":1,"name":"corte","stageOrder":1,"status":"Chưa bắt đầu"},{"id":"2","name":"ensamble","stageOrder":2}]`
	shapes := map[string]string{
		"arreglo":      items,
		"content":      `{"content":` + items + `}`,
		"data":         `{"data":` + items + `}`,
		"data.content": `{"data":{"content":` + items + `,"totalElements":2}}`,
	}
	for name, body := range shapes {
		t.Run(name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/manufacturing-orders/MO-1/processes", r.URL.Path)
				_, _ = io.WriteString(w, body)
			})
			procs, err := c.Manufacturing().ListProcesses(context.Background(), "MO-1")
			require.NoError(t, err)
			require.Len(t, procs, 2)
			assert.Equal(t, "1", procs[0].ID)
			assert.Equal(t, "2", procs[1].ID)
			assert.Equal(t, "MO-1", procs[1].OrderID)
			assert.Equal(t, 2, procs[1].StageOrder)
		})
	}
}

func TestErrores_MapeoDeStatus(t *testing.T) {
	cases := []struct {
		code int
		want error
	}{
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusForbidden, domain.ErrForbidden},
		{http.StatusConflict, domain.ErrConflict},
		{http.StatusUnprocessableEntity, domain.ErrUpstream},
		{http.StatusInternalServerError, domain.ErrUpstream},
	}
	for _, tc := range cases {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.code)
			_, _ = io.WriteString(w, `{"message":"x"}`)
		})
		_, err := c.Sales().GetSalesOrder(context.Background(), "42")
		require.Error(t, err)
		assert.ErrorIs(t, err, tc.want, "status %d", tc.code)
	}
}

func TestAPIError_ConservaStatusYCuerpo(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "cantidad inválida")
	})
	err := c.Sales().UpdateSalesOrderStatus(context.Background(), "42", status.AwaitingShipment)
	var apiErr *scmapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "cantidad inválida", apiErr.Body)
	assert.Equal(t, "/sales-orders/42/status", apiErr.Path)
}

func TestGetOne_RespuestaVaciaEsNotFound(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "W1", r.URL.Query().Get("warehouseId"))
		assert.Equal(t, "I1", r.URL.Query().Get("itemId"))
		_, _ = io.WriteString(w, `{"content":[]}`)
	})
	_, err := c.Inventory().Get(context.Background(), "W1", "I1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Si el servidor ignora el filtro, se elige la fila pedida; si no está, NotFound.
func TestInventoryGet_EligeLaFilaPedida(t *testing.T) {
	body := `{"data":{"content":[
		{"warehouseId":"W1","itemId":"I9","quantity":"900","onDemandQuantity":"0"},
		{"warehouseId":1,"itemId":"I1","quantity":"12","onDemandQuantity":"3"}]}}`
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	})
	ctx := context.Background()

	rec, err := c.Inventory().Get(ctx, "1", "I1")
	require.NoError(t, err)
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(12)))
	assert.True(t, rec.OnDemandQuantity.Equal(decimal.NewFromInt(3)))

	_, err = c.Inventory().Get(ctx, "W1", "I1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "ninguna fila es (W1, I1)")
}

func TestInventoryGet_ObjetoUnico(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"quantity":"7","onDemandQuantity":"1"}`)
	})
	rec, err := c.Inventory().Get(context.Background(), "W1", "I1")
	require.NoError(t, err)
	assert.Equal(t, "W1", rec.WarehouseID)
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(7)))

	c = newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"warehouseId":"W2","itemId":"I1","quantity":"7"}`)
	})
	_, err = c.Inventory().Get(context.Background(), "W1", "I1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestToken_ContextoYRespaldo(t *testing.T) {
	var got atomic.Value
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"id":42,"code":"SO42","status":"Đã xác nhận"}`)
	})

	ctx := scmapi.WithToken(context.Background(), "user-token")
	so, err := c.Sales().GetSalesOrder(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "Bearer user-token", got.Load())
	assert.Equal(t, "42", so.ID)
	assert.Equal(t, status.Confirmed, so.Status)

	_, err = c.Sales().GetSalesOrder(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Bearer service-token", got.Load())
}

func TestCreateDeliveryOrder_SoIDNumerico(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/delivery-orders", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(42), body["soId"])
		assert.Equal(t, string(status.AwaitingConfirmation), body["status"])
		_, _ = io.WriteString(w, `{"data":{"id":7,"soId":42,"status":"Chờ xác nhận"}}`)
	})
	do, err := c.Sales().CreateDeliveryOrder(context.Background(), "42", status.AwaitingConfirmation)
	require.NoError(t, err)
	assert.Equal(t, "7", do.ID)
	assert.Equal(t, "42", do.SOID)
}

func TestMutaciones_IdempotencyKey(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "mut-1", r.Header.Get("Idempotency-Key"))
		switch r.URL.Path {
		case "/inventory/decrease-quantity":
			var body struct {
				WarehouseID json.Number     `json:"warehouseId"`
				Quantity    decimal.Decimal `json:"quantity"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "3", body.WarehouseID.String())
			assert.True(t, body.Quantity.Equal(decimal.NewFromInt(5)))
		case "/inventory/decrease-on-demand":
			var body struct {
				OnDemand decimal.Decimal `json:"onDemandQuantity"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.True(t, body.OnDemand.Equal(decimal.NewFromInt(5)))
		default:
			t.Errorf("ruta inesperada %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	m := entity.StockMutation{MutationID: "mut-1", WarehouseID: "3", ItemID: "I1", Amount: decimal.NewFromInt(5)}
	require.NoError(t, c.Inventory().DecreaseQuantity(context.Background(), m))
	require.NoError(t, c.Inventory().DecreaseOnDemand(context.Background(), m))
}

func TestTicketUpdate_ReenviaCamposDesconocidos(t *testing.T) {
	var put map[string]json.RawMessage
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/issue-tickets/11", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"data":{"id":11,"code":"PX11","status":"Chờ xuất kho","warehouseId":3,
				"issueType":"Bán hàng","referenceId":42,"departmentId":7,
				"details":[{"itemId":1,"quantity":"5","actualQuantity":4}]}}`)
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&put))
			w.WriteHeader(http.StatusOK)
		}
	})
	ctx := context.Background()
	tk, err := c.Tickets().Get(ctx, status.TypeIssueTicket, "11")
	require.NoError(t, err)
	assert.Equal(t, entity.OriginSales, tk.Origin)
	assert.Equal(t, "42", tk.ReferenceID)
	require.Len(t, tk.Details, 1)
	assert.True(t, tk.Details[0].EffectiveQuantity().Equal(decimal.NewFromInt(4)))
	assert.Contains(t, tk.Extra, "departmentId")

	tk.Status = status.Completed
	updated, err := c.Tickets().Update(ctx, tk)
	require.NoError(t, err)
	assert.Equal(t, status.Completed, updated.Status)

	assert.JSONEq(t, `7`, string(put["departmentId"]))
	assert.JSONEq(t, `3`, string(put["warehouseId"]))
	assert.JSONEq(t, `11`, string(put["id"]))
	var st string
	require.NoError(t, json.Unmarshal(put["status"], &st))
	assert.Equal(t, string(status.Completed), st)
}

func TestTicketCreate_TrasladoNoPermitido(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })
	_, err := c.Tickets().Create(context.Background(), &entity.Ticket{Type: status.TypeTransferTicket})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, calls.Load())
}

func TestDocumentGet_Totales(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quotations/5", r.URL.Path)
		_, _ = io.WriteString(w, `{"id":5,"status":"Đã báo giá","rfqId":9,"supplierId":2,"taxRate":10,
			"items":[{"itemId":1,"quantity":2,"price":100,"discount":0}]}`)
	})
	doc, err := c.Documents().Get(context.Background(), status.TypeQuotation, "5")
	require.NoError(t, err)
	assert.Equal(t, "9", doc.SourceID)
	assert.Equal(t, "2", doc.PartnerID)
	assert.Equal(t, status.Quoted, doc.Status)
	assert.True(t, doc.Total.Equal(decimal.NewFromInt(220)), doc.Total.String())
}

func TestBreaker_AbreTrasFallosDelServidor(t *testing.T) {
	var hits atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, func(cfg *scmapi.Config) { cfg.BreakerFailures = 2 })

	for i := 0; i < 2; i++ {
		_, err := c.Sales().GetSalesOrder(context.Background(), "1")
		require.ErrorIs(t, err, domain.ErrUpstream)
	}
	_, err := c.Sales().GetSalesOrder(context.Background(), "1")
	require.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "circuit breaker")
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, "open", c.BreakerState())
}

func TestBreaker_ErroresDeClienteNoLoAbren(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, func(cfg *scmapi.Config) { cfg.BreakerFailures = 2 })

	for i := 0; i < 5; i++ {
		_, err := c.Sales().GetSalesOrder(context.Background(), "1")
		require.ErrorIs(t, err, domain.ErrNotFound)
	}
	assert.Equal(t, "closed", c.BreakerState())
}
