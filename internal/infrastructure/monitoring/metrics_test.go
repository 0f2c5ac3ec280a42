package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/turn/:n/screenshot", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, path := range []string{"/turn/1/screenshot", "/turn/2/screenshot", "/health", "/nowhere"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/turn/:n/screenshot", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	snap := m.Snapshot()
	assert.EqualValues(t, 4, snap.TotalRequests)
	assert.EqualValues(t, 3, snap.TotalErrors)
}

func TestInstancesAreIsolated(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordTurn("200", 2*time.Second, 3)
	a.RecordRender("annotated")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.TurnsTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(a.ActionsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.UpstreamCalls.WithLabelValues("200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.TurnsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.RenderOutcomes.WithLabelValues("annotated")))
}

func TestGaugeAndHandler(t *testing.T) {
	m := NewMetrics()
	m.Gauge("sse_clients", "Connected dashboard clients", func() float64 { return 4 })

	timer := NewTimer(m, "preview")
	timer.Stop("success")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "panel_sse_clients 4")
	assert.Contains(t, body, `panel_helper_calls_total{helper="preview",status="success"} 1`)
	assert.Contains(t, body, "panel_uptime_seconds")
}
