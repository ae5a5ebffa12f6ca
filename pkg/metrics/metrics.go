package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	SocketConnections    prometheus.Gauge
	DoctorsOnline        prometheus.Gauge
	ConsultRequestsTotal *prometheus.CounterVec
	AcceptRaceLostTotal  prometheus.Counter
	SignalRelayedTotal   *prometheus.CounterVec
	SignalDroppedTotal   prometheus.Counter

	AnalysesTotal       *prometheus.CounterVec
	OracleAttemptsTotal *prometheus.CounterVec
	OracleRetriesTotal  prometheus.Counter

	DBQueryDuration *prometheus.HistogramVec
	DBConnections   prometheus.Gauge

	AuditEntriesTotal  prometheus.Counter
	AuditBufferDropped prometheus.Counter
}

func NewCollector(reg prometheus.Registerer, serviceName string) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		SocketConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "socket",
			Name:      "connections",
			Help:      "Current number of open WebSocket connections.",
		}),

		DoctorsOnline: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "socket",
			Name:      "doctors_online",
			Help:      "Current number of connections registered as doctors.",
		}),

		ConsultRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "consult",
			Name:      "requests_total",
			Help:      "Patient consultation requests by outcome (broadcast, no_doctors).",
		}, []string{"outcome"}),

		AcceptRaceLostTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "consult",
			Name:      "accept_race_lost_total",
			Help:      "Accept attempts that arrived after another doctor had won.",
		}),

		SignalRelayedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "signal",
			Name:      "relayed_total",
			Help:      "WebRTC signaling messages relayed by type.",
		}, []string{"type"}),

		SignalDroppedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "signal",
			Name:      "dropped_total",
			Help:      "Signaling messages dropped because the target had disconnected.",
		}),

		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "oracle",
			Name:      "analyses_total",
			Help:      "Diagnosis analyses by final status (ok, error).",
		}, []string{"status"}),

		OracleAttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "oracle",
			Name:      "attempts_total",
			Help:      "Individual generation attempts by result (ok, overloaded, error).",
		}, []string{"result"}),

		OracleRetriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "oracle",
			Name:      "retries_total",
			Help:      "Retries performed after a model-overloaded response.",
		}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query latency distribution.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}, []string{"operation", "table"}),

		DBConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "db",
			Name:      "open_connections",
			Help:      "Current number of open database connections.",
		}),

		AuditEntriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "entries_total",
			Help:      "Total audit log entries written.",
		}),

		AuditBufferDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "buffer_dropped_total",
			Help:      "Audit entries dropped due to full buffer. Alert if non-zero.",
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
