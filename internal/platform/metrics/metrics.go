package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wfm_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wfm_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	clockEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wfm_clock_events_total",
		Help: "Count of time-clock entries by type and result",
	}, []string{"entry_type", "result"})

	swapTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wfm_swap_transitions_total",
		Help: "Count of shift-swap state transitions",
	}, []string{"to_status"})

	bulkShiftOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wfm_bulk_shift_operations_total",
		Help: "Count of bulk shift operations by action",
	}, []string{"action"})

	realtimeClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wfm_realtime_clients",
		Help: "Number of connected websocket clients",
	})
)

func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func ObserveClockEvent(entryType, result string) {
	clockEvents.WithLabelValues(entryType, result).Inc()
}

func ObserveSwapTransition(toStatus string) {
	swapTransitions.WithLabelValues(toStatus).Inc()
}

func ObserveBulkShiftOp(action string) {
	bulkShiftOps.WithLabelValues(action).Inc()
}

func RealtimeClientConnected() {
	realtimeClients.Inc()
}

func RealtimeClientDisconnected() {
	realtimeClients.Dec()
}
