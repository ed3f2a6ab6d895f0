package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs         *prometheus.CounterVec
	failures     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	batches      *prometheus.GaugeVec
	stockValue   prometheus.Gauge
	activeAlerts *prometheus.GaugeVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics against the provided registerer. When the
// registerer is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker provides lifecycle instrumentation helpers for a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track spawns a tracker for the given job name.
func (m *Metrics) Track(job string) *Tracker {
	if m == nil {
		return &Tracker{job: job, start: time.Now()}
	}
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End finalises the tracker, recording duration, success/failure counts and
// returning the provided error untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// SetStockBatches publishes the number of batches per expiry status.
func (m *Metrics) SetStockBatches(status string, count int) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(status).Set(float64(count))
}

// SetStockValue publishes the total delivered inventory value.
func (m *Metrics) SetStockValue(value float64) {
	if m == nil {
		return
	}
	m.stockValue.Set(value)
}

// SetActiveAlerts publishes the number of active alerts for a severity.
func (m *Metrics) SetActiveAlerts(severity string, count int) {
	if m == nil {
		return
	}
	m.activeAlerts.WithLabelValues(severity).Set(float64(count))
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pharmaflow_jobs_total",
		Help: "Total job executions partitioned by job name and status.",
	}, []string{"job", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pharmaflow_jobs_failures_total",
		Help: "Total failures observed for background jobs.",
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pharmaflow_job_duration_seconds",
		Help:    "Duration in seconds of background job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	batches := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pharmaflow_stock_batches",
		Help: "Stock batches by expiry status at the last scan.",
	}, []string{"status"})
	stockValue := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pharmaflow_stock_value",
		Help: "Total delivered stock value at the last scan.",
	})
	activeAlerts := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pharmaflow_active_alerts",
		Help: "Active alerts by severity at the last digest.",
	}, []string{"severity"})
	registerer.MustRegister(runs, failures, duration, batches, stockValue, activeAlerts)
	return &Metrics{
		runs:         runs,
		failures:     failures,
		duration:     duration,
		batches:      batches,
		stockValue:   stockValue,
		activeAlerts: activeAlerts,
	}
}
