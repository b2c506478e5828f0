package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes extraction counters on a private registry so tests can run
// several servers side by side.
type Metrics struct {
	registry *prometheus.Registry

	jobsTotal   *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	inFlight    prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	jobsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "easytextract",
			Subsystem: "extract",
			Name:      "jobs_total",
			Help:      "Total extraction jobs processed.",
		},
		[]string{"status", "method"},
	)
	jobDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "easytextract",
			Subsystem: "extract",
			Name:      "job_duration_seconds",
			Help:      "Extraction duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "easytextract",
			Subsystem: "extract",
			Name:      "in_flight_jobs",
			Help:      "Number of extractions currently running.",
		},
	)

	registry.MustRegister(jobsTotal, jobDuration, inFlight)
	return &Metrics{
		registry:    registry,
		jobsTotal:   jobsTotal,
		jobDuration: jobDuration,
		inFlight:    inFlight,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveJob(status, method string, d time.Duration) {
	if method == "" {
		method = "none"
	}
	m.jobsTotal.WithLabelValues(status, method).Inc()
	m.jobDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) JobStarted()  { m.inFlight.Inc() }
func (m *Metrics) JobFinished() { m.inFlight.Dec() }
