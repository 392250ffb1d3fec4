// Package metrics exposes Prometheus counters and histograms for record
// loads, treatment saves and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/caredata/internal/core"
)

// Collector implements core.Recorder.
type Collector struct {
	RecordsLoaded   *prometheus.CounterVec
	RecordsRejected *prometheus.CounterVec
	LoadDuration    *prometheus.HistogramVec

	TreatmentSaves *prometheus.CounterVec
	TreatmentEdits *prometheus.CounterVec

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

var _ core.Recorder = (*Collector)(nil)

// New registers the collector's metrics with reg. A nil reg uses a fresh
// registry, which keeps tests free of duplicate registration panics.
func New(namespace string, reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Collector{
		RecordsLoaded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "records",
			Name:      "loaded_total",
			Help:      "Records that passed validation, by kind.",
		}, []string{"kind"}),

		RecordsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "records",
			Name:      "rejected_total",
			Help:      "Records dropped by validation, by kind.",
		}, []string{"kind"}),

		LoadDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "records",
			Name:      "load_duration_seconds",
			Help:      "Time to read and validate one record file.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}, []string{"kind"}),

		TreatmentSaves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "treatments",
			Name:      "saves_total",
			Help:      "Treatment file saves by result.",
		}, []string{"result"}),

		TreatmentEdits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "treatments",
			Name:      "edits_total",
			Help:      "Treatment edits by action and whether they were applied.",
		}, []string{"action", "applied"}),

		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "route"}),

		gatherer: reg,
	}
}

// RecordLoad counts one loader run.
func (c *Collector) RecordLoad(kind core.Kind, loaded, rejected int, elapsed time.Duration) {
	k := string(kind)
	c.RecordsLoaded.WithLabelValues(k).Add(float64(loaded))
	c.RecordsRejected.WithLabelValues(k).Add(float64(rejected))
	c.LoadDuration.WithLabelValues(k).Observe(elapsed.Seconds())
}

// RecordSave counts a treatment file save.
func (c *Collector) RecordSave(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.TreatmentSaves.WithLabelValues(result).Inc()
}

// RecordEdit counts a saved edit or append.
func (c *Collector) RecordEdit(outcome core.EditOutcome) {
	c.TreatmentEdits.WithLabelValues(string(outcome.Action), strconv.FormatBool(outcome.Applied)).Inc()
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency keyed by the chi route
// pattern, so /api/treatments/3 and /api/treatments/4 share one series.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		c.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
