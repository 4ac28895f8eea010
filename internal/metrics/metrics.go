// Package metrics provides Prometheus instrumentation for merge runs.
//
// All recording methods are safe to call on a nil *Metrics, so callers that
// run without a registry (the CLI, most tests) need no guards.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// MetricsNamespace is the namespace for all catalog merge metrics.
	MetricsNamespace = "catalogmerge"

	// MetricsSubsystem is the subsystem for merge run metrics.
	MetricsSubsystem = "merge"
)

// Run status label values.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Metrics holds all Prometheus metrics for merge runs.
type Metrics struct {
	// Run metrics
	RunsTotal          *prometheus.CounterVec
	RunDurationSeconds prometheus.Histogram
	RunsInFlight       prometheus.Gauge
	RunsRejectedTotal  prometheus.Counter

	// Catalog metrics
	ProductsParsedTotal *prometheus.CounterVec
	BytesReadTotal      *prometheus.CounterVec
	RowsWrittenTotal    prometheus.Counter
	WarningsTotal       *prometheus.CounterVec
	LastRowCount        prometheus.Gauge

	// Sink metrics
	SinkFailuresTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all merge metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	m := &Metrics{}

	m.initRunMetrics(factory)
	m.initCatalogMetrics(factory)
	m.initSinkMetrics(factory)

	return m
}

// initRunMetrics initializes run lifecycle metrics.
func (m *Metrics) initRunMetrics(factory promauto.Factory) {
	m.RunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "runs_total",
			Help:      "Total number of merge runs by trigger and status",
		},
		[]string{"trigger", "status"},
	)

	m.RunDurationSeconds = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "run_duration_seconds",
			Help:      "Duration of merge runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 15), // 10ms to ~5min
		},
	)

	m.RunsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "runs_in_flight",
			Help:      "Number of merge runs currently executing",
		},
	)

	m.RunsRejectedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "runs_rejected_total",
			Help:      "Merge runs rejected because no slot became free",
		},
	)
}

// initCatalogMetrics initializes extraction and output metrics.
func (m *Metrics) initCatalogMetrics(factory promauto.Factory) {
	m.ProductsParsedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "products_parsed_total",
			Help:      "Products extracted per export kind",
		},
		[]string{"export"},
	)

	m.BytesReadTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "bytes_read_total",
			Help:      "Export bytes read per export kind",
		},
		[]string{"export"},
	)

	m.RowsWrittenTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "rows_total",
			Help:      "In-stock rows produced by merge runs",
		},
	)

	m.WarningsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "warnings_total",
			Help:      "Non-fatal problems recorded on merge runs",
		},
		[]string{"export"},
	)

	m.LastRowCount = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "last_run_rows",
			Help:      "Row count of the most recent successful run",
		},
	)
}

// initSinkMetrics initializes result sink metrics.
func (m *Metrics) initSinkMetrics(factory promauto.Factory) {
	m.SinkFailuresTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "sink_failures_total",
			Help:      "Failed attempts to persist a run, by sink",
		},
		[]string{"sink"},
	)
}

// RecordRunStarted marks a run as in flight.
func (m *Metrics) RecordRunStarted() {
	if m == nil {
		return
	}
	m.RunsInFlight.Inc()
}

// RecordRunFinished records the outcome of a run.
func (m *Metrics) RecordRunFinished(trigger, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.RunsInFlight.Dec()
	m.RunsTotal.WithLabelValues(trigger, status).Inc()
	m.RunDurationSeconds.Observe(durationSeconds)
}

// RecordRunRejected counts a run refused by the limiter.
func (m *Metrics) RecordRunRejected() {
	if m == nil {
		return
	}
	m.RunsRejectedTotal.Inc()
}

// RecordExport records what one extraction pass read.
func (m *Metrics) RecordExport(export string, products int, bytesRead int64) {
	if m == nil {
		return
	}
	m.ProductsParsedTotal.WithLabelValues(export).Add(float64(products))
	m.BytesReadTotal.WithLabelValues(export).Add(float64(bytesRead))
}

// RecordWarning counts a non-fatal problem on an export.
func (m *Metrics) RecordWarning(export string) {
	if m == nil {
		return
	}
	m.WarningsTotal.WithLabelValues(export).Inc()
}

// RecordRows records the rows produced by a successful run.
func (m *Metrics) RecordRows(rows int) {
	if m == nil {
		return
	}
	m.RowsWrittenTotal.Add(float64(rows))
	m.LastRowCount.Set(float64(rows))
}

// RecordSinkFailure counts a sink that could not persist a run.
func (m *Metrics) RecordSinkFailure(sink string) {
	if m == nil {
		return
	}
	m.SinkFailuresTotal.WithLabelValues(sink).Inc()
}
