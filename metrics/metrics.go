package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"credit-dashboard/models"
)

const namespace = "credit_dashboard"

// Recorder owns the dashboard's Prometheus collectors. Each Recorder has
// its own registry so tests can create as many as they like.
type Recorder struct {
	registry *prometheus.Registry

	datasetRows  *prometheus.GaugeVec
	droppedRows  *prometheus.GaugeVec
	viewRequests *prometheus.CounterVec
	viewDuration *prometheus.HistogramVec
	exports      *prometheus.CounterVec
}

// New registers every collector plus the Go and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		datasetRows: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the loaded dataset by stage (input, kept).",
		}, []string{"stage"}),
		droppedRows: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dropped_rows",
			Help:      "Rows removed during cleaning by rule.",
		}, []string{"rule"}),
		viewRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_requests_total",
			Help:      "Chart requests by view and outcome (ok, empty, error).",
		}, []string{"view", "result"}),
		viewDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "view_duration_seconds",
			Help:      "Time spent filtering and aggregating a view.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"view"}),
		exports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Filtered exports served by format.",
		}, []string{"format"}),
	}
}

// ObserveCleaning publishes the clean report of the loaded dataset.
func (r *Recorder) ObserveCleaning(report *models.CleanReport) {
	if report == nil {
		return
	}
	r.datasetRows.WithLabelValues("input").Set(float64(report.InputRows))
	r.datasetRows.WithLabelValues("kept").Set(float64(report.KeptRows))
	r.droppedRows.Reset()
	for rule, n := range report.DroppedByRule {
		r.droppedRows.WithLabelValues(rule).Set(float64(n))
	}
}

// ObserveView records one chart request.
func (r *Recorder) ObserveView(view, result string, took time.Duration) {
	r.viewRequests.WithLabelValues(view, result).Inc()
	r.viewDuration.WithLabelValues(view).Observe(took.Seconds())
}

// ObserveExport counts one export download.
func (r *Recorder) ObserveExport(format string) {
	r.exports.WithLabelValues(format).Inc()
}

// Registry exposes the underlying registry for scraping in tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
