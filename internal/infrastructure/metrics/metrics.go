// Package metrics exposes prometheus counters for the /metrics
// endpoint: an ambient observability concern, additive and not touching
// core semantics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters and histogram the HTTP surface records
// against per run.
type Metrics struct {
	RunsTotal      *prometheus.CounterVec
	StepsTotal     *prometheus.CounterVec
	RunDuration    prometheus.Histogram
}

// New registers the metrics against the default prometheus registry.
func New() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "automation_runs_total",
			Help: "Total number of /api/run-automation requests, labeled by outcome.",
		}, []string{"status"}),
		StepsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "automation_steps_total",
			Help: "Total number of executed action steps, labeled by status.",
		}, []string{"status"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "automation_run_duration_seconds",
			Help:    "Wall-clock duration of a /api/run-automation request.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

// ObserveReport records per-step status counts and the run's overall
// pass/fail outcome for a single TestReport.
func (m *Metrics) ObserveReport(status string, passed, failed int) {
	m.RunsTotal.WithLabelValues(status).Inc()
	m.StepsTotal.WithLabelValues("pass").Add(float64(passed))
	m.StepsTotal.WithLabelValues("fail").Add(float64(failed))
}
