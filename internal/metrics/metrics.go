// Package metrics provides Prometheus instrumentation for the session bridge
// and the orchestration components.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeIssued    = "issued"
	OutcomeApplied   = "applied"
	OutcomeStale     = "stale"
	OutcomeFailed    = "failed"
	OutcomeSubmitted = "submitted"
	OutcomeSucceeded = "succeeded"
)

var (
	// PreviewQueries counts preview-count queries by outcome.
	PreviewQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etfoptimizer_preview_queries_total",
		Help: "Preview count queries by outcome",
	}, []string{"outcome"})

	// OptimizeRequests counts optimize submissions by outcome.
	OptimizeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etfoptimizer_optimize_requests_total",
		Help: "Optimize submissions by outcome",
	}, []string{"outcome"})

	// OptimizeDuration tracks how long authoritative optimize calls take.
	OptimizeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "etfoptimizer_optimize_duration_seconds",
		Help:    "Optimize call duration in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	// StreamClients tracks connected SSE and websocket clients.
	StreamClients = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "etfoptimizer_stream_clients",
		Help: "Number of connected event stream clients",
	}, []string{"transport"})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etfoptimizer_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "etfoptimizer_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Route patterns keep the label cardinality bounded.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
// It passes Flush and Hijack through for the event streams.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
