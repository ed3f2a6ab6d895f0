package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/alerts/summary")

	req := httptest.NewRequest(http.MethodGet, "/alerts/summary", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	metricsRR := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(metricsRR, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := metricsRR.Body.String()
	require.Contains(t, body, `pharmaflow_http_requests_total{code="418",route="/alerts/summary"} 1`)
	require.Contains(t, body, `pharmaflow_http_request_duration_seconds_bucket{route="/alerts/summary"`)
}

func TestNilMetricsHandlerIsUnavailable(t *testing.T) {
	var metrics *Metrics
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestObserveBackendCall(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveBackendCall(http.MethodGet, "stock-entries", http.StatusOK, 120*time.Millisecond)
	metrics.ObserveBackendCall(http.MethodPatch, "alerts", 0, time.Second)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	require.Contains(t, body, `pharmaflow_backend_requests_total{method="GET",outcome="200",resource="stock-entries"} 1`)
	require.Contains(t, body, `pharmaflow_backend_requests_total{method="PATCH",outcome="error",resource="alerts"} 1`)

	var nilMetrics *Metrics
	nilMetrics.ObserveBackendCall(http.MethodGet, "users", 200, time.Millisecond)
}
