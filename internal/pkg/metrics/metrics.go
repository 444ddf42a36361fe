package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every console collector. The watch server exposes it on
// /metrics.
var Registry = prometheus.NewRegistry()

var (
	// APIRequestsTotal counts gateway calls by operation and outcome.
	// outcome: success, network, server, setup
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patrolctl_api_requests_total",
			Help: "Total number of backend API requests issued by the console.",
		},
		[]string{"operation", "outcome"},
	)

	// APIRequestDuration records the latency of gateway calls.
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "patrolctl_api_request_duration_seconds",
			Help:    "Latency of backend API requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// SessionTransitionsTotal counts session state machine events.
	SessionTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patrolctl_session_transitions_total",
			Help: "Total number of session login/logout events.",
		},
		[]string{"event", "result"},
	)

	// SessionAuthenticated is 1 while a credential is held.
	SessionAuthenticated = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "patrolctl_session_authenticated",
			Help: "Whether the console session is authenticated (1) or not (0).",
		},
	)

	// ViewActivationsTotal counts view activations by route and guard decision.
	ViewActivationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patrolctl_view_activations_total",
			Help: "Total number of view navigations by route and guard decision.",
		},
		[]string{"route", "decision"},
	)

	// TelemetryUpdatesTotal counts live telemetry updates by source.
	TelemetryUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patrolctl_telemetry_updates_total",
			Help: "Total number of live telemetry updates received.",
		},
		[]string{"source"},
	)

	// DashboardRefreshesTotal counts watch-mode dashboard refreshes.
	// outcome: ok, partial, skipped, canceled
	DashboardRefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patrolctl_dashboard_refreshes_total",
			Help: "Total number of dashboard refreshes in watch mode.",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		APIRequestsTotal,
		APIRequestDuration,
		SessionTransitionsTotal,
		SessionAuthenticated,
		ViewActivationsTotal,
		TelemetryUpdatesTotal,
		DashboardRefreshesTotal,
	)
}
