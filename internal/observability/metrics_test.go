package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestRecordAuthCountsOutcomes(t *testing.T) {
	metrics := NewMetrics()
	metrics.RecordAuth("login", "success")
	metrics.RecordAuth("login", "failure")
	metrics.RecordAuth("login", "failure")

	body := scrape(t, metrics)
	assert.Contains(t, body, `portal_auth_events_total{event="login",outcome="success"} 1`)
	assert.Contains(t, body, `portal_auth_events_total{event="login",outcome="failure"} 2`)
}

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	metrics := NewMetrics()
	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/api/event/{id}")
	req := httptest.NewRequest(http.MethodGet, "/api/event/7", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	body := scrape(t, metrics)
	assert.Contains(t, body, `portal_http_requests_total{code="201",route="/api/event/{id}"} 1`)
	assert.Contains(t, body, `portal_http_request_duration_seconds_bucket{route="/api/event/{id}"`)
}

func TestUnroutedRequestsUseUnknownLabel(t *testing.T) {
	metrics := NewMetrics()
	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Contains(t, scrape(t, metrics), `portal_http_requests_total{code="200",route="unknown"} 1`)
}

func TestRegistererAcceptsCustomCollectors(t *testing.T) {
	metrics := NewMetrics()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "portal_test_gauge", Help: "test"})
	require.NoError(t, metrics.Registerer().Register(gauge))
	gauge.Set(3)

	assert.Contains(t, scrape(t, metrics), "portal_test_gauge 3")
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	assert.NotPanics(t, func() { metrics.RecordAuth("refresh", "success") })

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, metrics.Middleware(next))

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
