package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/doc-responder/internal/core/domain"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	messagesTotal *prometheus.CounterVec
	repliesTotal  *prometheus.CounterVec
	scanDuration  *prometheus.HistogramVec
	scansInFlight prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	messagesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docresp",
			Subsystem: "worker",
			Name:      "messages_total",
			Help:      "Total analyzed messages by outcome.",
		},
		[]string{"service", "outcome"},
	)
	repliesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docresp",
			Subsystem: "worker",
			Name:      "replies_total",
			Help:      "Total replies delivered.",
		},
		[]string{"service"},
	)
	scanDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docresp",
			Subsystem: "worker",
			Name:      "scan_duration_seconds",
			Help:      "End-to-end scan run duration in seconds.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service", "status"},
	)
	scansInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docresp",
			Subsystem: "worker",
			Name:      "scans_in_flight",
			Help:      "Number of scan runs currently executing.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(messagesTotal, repliesTotal, scanDuration, scansInFlight)

	return &WorkerMetrics{
		registry:      registry,
		messagesTotal: messagesTotal,
		repliesTotal:  repliesTotal,
		scanDuration:  scanDuration,
		scansInFlight: scansInFlight,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartScan() {
	m.scansInFlight.Inc()
}

// FinishScan folds one run report into the counters.
func (m *WorkerMetrics) FinishScan(service string, report domain.RunReport, duration time.Duration, err error) {
	m.scansInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.scanDuration.WithLabelValues(service, status).Observe(duration.Seconds())

	m.messagesTotal.WithLabelValues(service, "replied").Add(float64(report.RepliesSent))
	m.messagesTotal.WithLabelValues(service, "skipped").Add(float64(report.Skipped))
	m.messagesTotal.WithLabelValues(service, "error").Add(float64(len(report.Errors)))
	m.repliesTotal.WithLabelValues(service).Add(float64(report.RepliesSent))
}
