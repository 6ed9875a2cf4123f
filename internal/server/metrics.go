package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsNamespace = "projectlens"

	outcomeOK    = "ok"
	outcomeError = "error"

	// typeInvalid labels frames that could not be parsed.
	typeInvalid = "invalid"
	// typeUnknown labels frames with an unrecognised type.
	typeUnknown = "unknown"
)

// Metrics holds the message server's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	messagesTotal     *prometheus.CounterVec
	messageDuration   *prometheus.HistogramVec
	activeConnections prometheus.Gauge
	commandsTotal     *prometheus.CounterVec
}

// NewMetrics registers the server collectors, plus the Go runtime and
// process collectors, on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		// Labels: type (request type, "invalid" or "unknown"), outcome (ok, error)
		messagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "messages_total",
				Help:      "Total messages handled, by request type and outcome",
			},
			[]string{"type", "outcome"},
		),
		messageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "message_duration_seconds",
				Help:      "Time from frame receipt to reply, by request type",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"type"},
		),
		activeConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "active_connections",
				Help:      "Number of open WebSocket connections",
			},
		),
		// Labels: success (true, false)
		commandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "commands_total",
				Help:      "Total run_command executions by success",
			},
			[]string{"success"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) recordMessage(msgType string, reply Reply, start time.Time) {
	outcome := outcomeOK
	if reply.Type == TypeError {
		outcome = outcomeError
	}
	m.messagesTotal.WithLabelValues(msgType, outcome).Inc()
	m.messageDuration.WithLabelValues(msgType).Observe(time.Since(start).Seconds())
}

func (m *Metrics) recordCommand(success bool) {
	label := "false"
	if success {
		label = "true"
	}
	m.commandsTotal.WithLabelValues(label).Inc()
}

// metricType bounds the type label to known request types.
func metricType(msgType string) string {
	for _, t := range RequestTypes {
		if t == msgType {
			return t
		}
	}
	return typeUnknown
}
