// Package metrics holds the prometheus collectors of the dashboard server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// BackendRequests counts calls to the delivery backend by endpoint and outcome.
	BackendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dispatch",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Requests sent to the delivery backend.",
		},
		[]string{"endpoint", "status"},
	)

	// BackendLatency observes backend call durations.
	BackendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dispatch",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Latency of delivery backend requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dispatch",
		Subsystem: "backend",
		Name:      "breaker_state",
		Help:      "Circuit breaker state for the delivery backend.",
	})

	// TrackingEvents counts live location events by outcome.
	TrackingEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dispatch",
			Subsystem: "tracking",
			Name:      "events_total",
			Help:      "Live tracking events received from the backend socket.",
		},
		[]string{"event", "outcome"},
	)

	// ActiveWorkspaces is the number of open operator sessions.
	ActiveWorkspaces = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dispatch",
		Name:      "active_workspaces",
		Help:      "Operator sessions with a live workspace.",
	})
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(BackendRequests, BackendLatency, BreakerState, TrackingEvents, ActiveWorkspaces)
}
