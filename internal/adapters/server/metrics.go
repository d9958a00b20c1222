package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evanschultz/taskboard/internal/adapters/server/common"
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the collectors exported on /metrics.
type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	events   *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskboard",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by method, route and status code.",
		}, []string{"method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "taskboard",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskboard",
			Subsystem: "board",
			Name:      "events_total",
			Help:      "Board events dispatched, by type and whether they changed the board.",
		}, []string{"type", "changed"}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration, m.events} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// middleware records request counts and latency. Paths are reduced to known routes so label
// cardinality stays bounded.
func (m *metrics) middleware(cfg Config, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := routeLabel(cfg, r.URL.Path)
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// routeLabel maps a raw request path onto a bounded route label.
func routeLabel(cfg Config, path string) string {
	path = "/" + strings.Trim(path, "/")
	switch {
	case path == "/healthz", path == "/readyz", path == metricsPath:
		return path
	case path == cfg.MCPEndpoint:
		return cfg.MCPEndpoint
	case path == cfg.APIEndpoint:
		return cfg.APIEndpoint
	case strings.HasPrefix(path, cfg.APIEndpoint+"/"):
		switch rest := strings.TrimPrefix(path, cfg.APIEndpoint+"/"); rest {
		case "board", "events", "activity":
			return cfg.APIEndpoint + "/" + rest
		}
	}
	return "other"
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush forwards streaming flushes used by the MCP transport.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// instrumentedBoard counts dispatched events on the way to the wrapped service.
type instrumentedBoard struct {
	common.BoardService
	metrics *metrics
}

func newInstrumentedBoard(board common.BoardService, m *metrics) *instrumentedBoard {
	return &instrumentedBoard{BoardService: board, metrics: m}
}

// Dispatch forwards one event and counts successful dispatches.
func (b *instrumentedBoard) Dispatch(ctx context.Context, req common.EventRequest) (common.EventResult, error) {
	result, err := b.BoardService.Dispatch(ctx, req)
	if err != nil && result.Type == "" {
		return result, err
	}
	b.metrics.events.WithLabelValues(result.Type, strconv.FormatBool(result.Changed)).Inc()
	return result, err
}
