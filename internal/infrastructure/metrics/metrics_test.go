package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/scm-fulfillment/internal/infrastructure/metrics"
)

func TestMetrics_Contadores(t *testing.T) {
	m := metrics.New("")
	m.RunFinished("Bán hàng", "done")
	m.RunFinished("Bán hàng", "done")
	m.StepFinished("complete_ticket", "ok")
	m.APIRequest("get_inventory", "ok", 20*time.Millisecond)
	m.PropagationFailed("quotation")
	m.LockWait(time.Millisecond)

	n, err := testutil.GatherAndCount(m.Registry(), "scm_fulfillment_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "una serie por combinación de etiquetas")

	n, err = testutil.GatherAndCount(m.Registry(), "scm_api_requests_total", "scm_api_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New("")
	m.StepFinished("inventory[0].quantity", "failed")
	m.HTTPRequest("POST", "/api/tickets/:type/:id/execute", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `scm_fulfillment_steps_total{outcome="failed",step="inventory[0].quantity"} 1`)
	assert.Contains(t, string(body), `scm_http_requests_total{method="POST",route="/api/tickets/:type/:id/execute",status="200"} 1`)
}
