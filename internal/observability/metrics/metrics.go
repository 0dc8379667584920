package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "inlet_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	assignmentOps     *prometheus.CounterVec
	assignmentLatency *prometheus.HistogramVec

	moveRollbacks       prometheus.Counter
	moveInconsistencies prometheus.Counter

	topologyEvents *prometheus.CounterVec

	wsClients prometheus.Gauge
)

// Init registers observability metrics and DB-backed gauges.
// Safe to call more than once; registration happens only on the first call.
func Init(db *sql.DB, logger Logger) {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_latency_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)

		assignmentOps = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "assignment_ops_total",
				Help: "Total assignment operations by op and result",
			},
			[]string{"op", "result"},
		)
		assignmentLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "assignment_op_latency_seconds",
				Help:    "Assignment operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		)

		moveRollbacks = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "move_rollbacks_total",
				Help: "Total device moves that required compensation",
			},
		)
		moveInconsistencies = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "move_inconsistencies_total",
				Help: "Total device moves that left the device detached",
			},
		)

		topologyEvents = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "topology_events_total",
				Help: "Total topology change events by entity and action",
			},
			[]string{"entity", "action"},
		)

		wsClients = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "websocket_clients",
				Help: "Connected WebSocket clients",
			},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			assignmentOps,
			assignmentLatency,
			moveRollbacks,
			moveInconsistencies,
			topologyEvents,
			wsClients,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// Logger is the minimal logging surface the metrics package needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
}

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, route, status).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
	}
}

// ObserveAssignmentOp records an assignment operation's result and duration.
func ObserveAssignmentOp(op string, result string, duration time.Duration) {
	if op == "" {
		op = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if assignmentOps != nil {
		assignmentOps.WithLabelValues(op, result).Inc()
	}
	if assignmentLatency != nil {
		assignmentLatency.WithLabelValues(op).Observe(duration.Seconds())
	}
}

// IncMoveRollback increments the compensation counter.
func IncMoveRollback() {
	if moveRollbacks != nil {
		moveRollbacks.Inc()
	}
}

// IncMoveInconsistency increments the failed-compensation counter.
func IncMoveInconsistency() {
	if moveInconsistencies != nil {
		moveInconsistencies.Inc()
	}
}

// IncTopologyEvent increments the topology change counter.
func IncTopologyEvent(entity string, action string) {
	if entity == "" {
		entity = "unknown"
	}
	if action == "" {
		action = "unknown"
	}
	if topologyEvents != nil {
		topologyEvents.WithLabelValues(entity, action).Inc()
	}
}

// SetWSClients sets the connected WebSocket client gauge.
func SetWSClients(count int) {
	if count < 0 {
		count = 0
	}
	if wsClients != nil {
		wsClients.Set(float64(count))
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
