package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "lyricserver"

	metricLabelRoute     = "route"
	metricLabelResult    = "result"
	metricLabelOperation = "operation"
)

// Metrics is the structure that holds all prometheus metrics
var (
	// ServiceRequestCounter count the number of requests for each API route
	ServiceRequestCounter = newCounterVec(
		"service_request_count",
		"Count of requests for each route",
		metricLabelRoute, metricLabelResult,
	)
	// ServiceRequestDuration observe the duration of requests for each API route
	ServiceRequestDuration = newSummaryVec(
		"service_request_duration_seconds",
		"Seconds to decode a request, execute it against the store and encode the response",
		metricLabelRoute, metricLabelResult,
	)
	// StoreOperationCounter count record store operations
	StoreOperationCounter = newCounterVec(
		"store_operation_count",
		"Number of record store operations",
		metricLabelOperation, metricLabelResult,
	)
	// SessionsActiveGauge keep track of the number of live sessions
	SessionsActiveGauge = newGaugeVec(
		"sessions_active_total",
		"Number of currently live sessions",
	)
	// LoginFailedCounter count the number of rejected login attempts
	LoginFailedCounter = newCounterVec(
		"login_failed_count",
		"Number of login attempts with a wrong password",
	)
	// SessionsPurgedCounter count the number of sessions removed after expiry
	SessionsPurgedCounter = newCounterVec(
		"sessions_purged_count",
		"Number of sessions removed because their TTL ran out",
	)
)

func newSummaryVec(name, help string, labels ...string) *prometheus.SummaryVec {
	vec := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newGaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	vec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}
