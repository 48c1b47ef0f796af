package observability

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger_Handlers(t *testing.T) {
	var buf bytes.Buffer
	newLogger("production", &buf).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	newLogger("dev", &buf).Debug("debug line")
	assert.Contains(t, buf.String(), "msg=\"debug line\"")
}

func TestLoggerMiddleware_RequestID(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	h := middleware.RequestID(NewLoggerMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		LoggerFromContext(r.Context(), nil).Info("inside")
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, buf.String(), `"request_id"`)
}

func TestLoggerFromContext_Fallback(t *testing.T) {
	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Same(t, fallback, LoggerFromContext(context.Background(), fallback))
}

func TestObserveGatewayCall(t *testing.T) {
	before := testutil.ToFloat64(gatewayRequestsTotal.WithLabelValues("GET", "transactions/{receiptId}", "success"))
	ObserveGatewayCall("GET", "transactions/{receiptId}", "success", 20*time.Millisecond)
	after := testutil.ToFloat64(gatewayRequestsTotal.WithLabelValues("GET", "transactions/{receiptId}", "success"))
	assert.Equal(t, before+1, after)
}

func TestMetricsMiddleware_RoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(NewMetricsMiddleware("test-relay"))
	r.Get("/transactions/{receiptId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/transactions/42", nil))

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("test-relay", "GET", "/transactions/{receiptId}", "200"))
	assert.Equal(t, float64(1), got)
}
