package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions     prometheus.Gauge
	Turns              *prometheus.CounterVec
	SpecialistLatency  *prometheus.HistogramVec
	SpecialistFailures *prometheus.CounterVec
	CompletionErrors   *prometheus.CounterVec
	MapCommands        prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of active chat sessions.",
		}),
		Turns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Processed turns by intent and outcome.",
		}, []string{"intent", "outcome"}),
		SpecialistLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "specialist_latency_ms",
			Help:      "Specialist agent call latency in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 5000, 10000, 20000},
		}, []string{"agent"}),
		SpecialistFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "specialist_failures_total",
			Help:      "Specialist agent failures by agent and code.",
		}, []string{"agent", "code"}),
		CompletionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_errors_total",
			Help:      "Completion service errors by adapter.",
		}, []string{"adapter"}),
		MapCommands: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "map_commands_total",
			Help:      "Map marker commands emitted to clients.",
		}),
	}
}

func (m *Metrics) ObserveSpecialistLatency(agent string, d time.Duration) {
	m.SpecialistLatency.WithLabelValues(agent).Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
