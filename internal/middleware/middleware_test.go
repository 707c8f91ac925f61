package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(Logger(logger))
	r.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/1", nil))

	out := buf.String()
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"path":"/orders/1"`)
	assert.Contains(t, out, `"request_id"`)
}

func TestLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, level(http.StatusCreated))
	assert.Equal(t, slog.LevelWarn, level(http.StatusBadRequest))
	assert.Equal(t, slog.LevelError, level(http.StatusServiceUnavailable))
}

func TestMetrics(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Post("/orders", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	labels := prometheus.Labels{"method": http.MethodPost, "route": "/orders", "status": "201"}
	before := testutil.ToFloat64(httpRequestsTotal.With(labels))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/orders", nil))
	require.Equal(t, http.StatusCreated, rr.Code)

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.With(labels)))
	assert.Zero(t, testutil.ToFloat64(httpInFlight))
}

func TestMetrics_RouteLabels(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {})

	byPattern := prometheus.Labels{"method": http.MethodGet, "route": "/orders/{id}", "status": "200"}
	unmatched := prometheus.Labels{"method": http.MethodGet, "route": unmatchedRoute, "status": "404"}
	health := prometheus.Labels{"method": http.MethodGet, "route": "/healthz", "status": "200"}
	beforePattern := testutil.ToFloat64(httpRequestsTotal.With(byPattern))
	beforeUnmatched := testutil.ToFloat64(httpRequestsTotal.With(unmatched))
	beforeHealth := testutil.ToFloat64(httpRequestsTotal.With(health))

	for _, path := range []string{"/orders/a", "/orders/b", "/nope", "/healthz"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, beforePattern+2, testutil.ToFloat64(httpRequestsTotal.With(byPattern)))
	assert.Equal(t, beforeUnmatched+1, testutil.ToFloat64(httpRequestsTotal.With(unmatched)))
	assert.Equal(t, beforeHealth, testutil.ToFloat64(httpRequestsTotal.With(health)))
}
