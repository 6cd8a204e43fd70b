// Package metrics provides Prometheus HTTP instrumentation for the
// example services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTP instruments request traffic. Register it before serving.
type HTTP struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

// NewHTTP creates and registers the HTTP metrics.
func NewHTTP(reg prometheus.Registerer) (*HTTP, error) {
	m := &HTTP{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "redisvl",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "redisvl",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}

	if err := reg.Register(m.duration); err != nil {
		return nil, err
	}
	if err := reg.Register(m.total); err != nil {
		return nil, err
	}
	return m, nil
}

// Middleware records request duration and count per chi route pattern,
// so path parameters never blow up label cardinality.
func (m *HTTP) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(ww.status)
			path := chi.RouteContext(r.Context()).RoutePattern()
			if path == "" {
				path = "unknown"
			}

			m.duration.WithLabelValues(r.Method, path, status).Observe(duration)
			m.total.WithLabelValues(r.Method, path, status).Inc()
		})
	}
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // delegating to underlying ResponseWriter
}
