package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/session/parameters/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/session/parameters/{name}", "418"))

	req := httptest.NewRequest(http.MethodGet, "/api/session/parameters/assetCutoff", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/session/parameters/{name}", "418"))
	assert.Equal(t, before+1, after)
}

func TestStatusWriter_Flush(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &statusWriter{ResponseWriter: rec, status: http.StatusOK}

	var flusher http.Flusher = w
	flusher.Flush()
	assert.True(t, rec.Flushed)
	assert.Same(t, rec, w.Unwrap())

	_, _, err := w.Hijack()
	assert.Error(t, err)
}

func TestHandler_ExposesCounters(t *testing.T) {
	PreviewQueries.WithLabelValues(OutcomeIssued).Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "etfoptimizer_preview_queries_total"))
}
