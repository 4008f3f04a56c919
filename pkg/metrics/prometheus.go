// Package metrics provides Prometheus metrics for the tripsync task.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for one task process.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Run outcome
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	lastRunUnix     prometheus.Gauge
	lastSuccessUnix prometheus.Gauge

	// Data volume
	rowsFetched prometheus.Counter
	rowsWritten prometheus.Counter

	// Phases and failures
	phaseDuration   *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	releaseFailures *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tripsync",
		subsystem:        "task",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.runsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_total",
		Help:      "Total number of runs by final state",
	}, []string{"state"})

	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_duration_seconds",
		Help:      "Wall time of a run from connect to release",
		Buckets:   m.histogramBuckets,
	})

	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_run_unix",
		Help:      "Unix timestamp of the last finished run",
	})

	m.lastSuccessUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_success_unix",
		Help:      "Unix timestamp of the last committed run",
	})

	m.rowsFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_fetched_total",
		Help:      "Rows read from the source",
	})

	m.rowsWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_written_total",
		Help:      "Rows committed to the sink",
	})

	m.phaseDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "phase_duration_seconds",
		Help:      "Duration of each run phase",
		Buckets:   m.histogramBuckets,
	}, []string{"phase"})

	m.errorsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Failed runs by phase and error kind",
	}, []string{"phase", "kind"})

	m.releaseFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "release_failures_total",
		Help:      "Connections that failed to close cleanly",
	}, []string{"component"})
}

// RecordRun records the final state and duration of a run.
func (m *Manager) RecordRun(state string, took time.Duration, finishedAt time.Time, committed bool) {
	m.runsTotal.WithLabelValues(state).Inc()
	m.runDuration.Observe(took.Seconds())
	m.lastRunUnix.Set(float64(finishedAt.Unix()))
	if committed {
		m.lastSuccessUnix.Set(float64(finishedAt.Unix()))
	}
}

// RecordRowsFetched adds n rows read from the source.
func (m *Manager) RecordRowsFetched(n int) { m.rowsFetched.Add(float64(n)) }

// RecordRowsWritten adds n rows committed to the sink.
func (m *Manager) RecordRowsWritten(n int) { m.rowsWritten.Add(float64(n)) }

// RecordPhase observes how long a phase took.
func (m *Manager) RecordPhase(phase string, took time.Duration) {
	m.phaseDuration.WithLabelValues(phase).Observe(took.Seconds())
}

// RecordError counts a failed run.
func (m *Manager) RecordError(phase, kind string) {
	m.errorsTotal.WithLabelValues(phase, kind).Inc()
}

// RecordReleaseFailure counts a connection that did not close cleanly.
func (m *Manager) RecordReleaseFailure(component string) {
	m.releaseFailures.WithLabelValues(component).Inc()
}

// Package-level helpers on the global manager.

// RecordRun records a finished run on the global manager.
func RecordRun(state string, took time.Duration, finishedAt time.Time, committed bool) {
	globalManager.RecordRun(state, took, finishedAt, committed)
}

// RecordRowsFetched records source rows on the global manager.
func RecordRowsFetched(n int) { globalManager.RecordRowsFetched(n) }

// RecordRowsWritten records sink rows on the global manager.
func RecordRowsWritten(n int) { globalManager.RecordRowsWritten(n) }

// RecordPhase records a phase duration on the global manager.
func RecordPhase(phase string, took time.Duration) { globalManager.RecordPhase(phase, took) }

// RecordError records a failed run on the global manager.
func RecordError(phase, kind string) { globalManager.RecordError(phase, kind) }

// RecordReleaseFailure records a close failure on the global manager.
func RecordReleaseFailure(component string) { globalManager.RecordReleaseFailure(component) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
