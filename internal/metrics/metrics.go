// Package metrics provides Prometheus metrics for CoreWatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "corewatch"
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks concurrent HTTP requests.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Current number of HTTP requests being served",
		},
	)
)

// Telemetry metrics
var (
	// SamplesGenerated counts sensor samples produced by the generator.
	SamplesGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telemetry",
			Name:      "samples_generated_total",
			Help:      "Total number of sensor samples generated",
		},
	)

	// SampleFailures counts per-sensor sample generation failures.
	SampleFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telemetry",
			Name:      "sample_failures_total",
			Help:      "Total number of per-sensor sample generation failures",
		},
	)

	// ReadingStatus tracks the last derived status per sensor (0=normal, 1=warning, 2=critical).
	ReadingStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "telemetry",
			Name:      "reading_status",
			Help:      "Last derived reading status per sensor (0=normal, 1=warning, 2=critical)",
		},
		[]string{"sensor_id"},
	)
)

// Alerting metrics
var (
	// AlertsRaised counts alerts created, by severity.
	AlertsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerting",
			Name:      "alerts_raised_total",
			Help:      "Total number of alerts raised",
		},
		[]string{"severity"},
	)

	// AlertsSuppressed counts breaches suppressed by an existing active alert.
	AlertsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerting",
			Name:      "alerts_suppressed_total",
			Help:      "Total number of threshold breaches suppressed as duplicates",
		},
	)
)

// Broadcast metrics
var (
	// ObserversConnected tracks currently connected dashboard observers.
	ObserversConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "observers_connected",
			Help:      "Current number of connected observers",
		},
	)

	// EventsBroadcast counts events delivered to observer queues, by type.
	EventsBroadcast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "events_total",
			Help:      "Total number of events enqueued for observers",
		},
		[]string{"type"},
	)

	// EventsDropped counts events dropped because an observer queue was full.
	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "events_dropped_total",
			Help:      "Total number of events dropped for slow observers",
		},
	)
)

// Insight metrics
var (
	// InsightRuns counts derived-insight scheduler executions that produced a recommendation.
	InsightRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "insight",
			Name:      "runs_total",
			Help:      "Total number of recommendations produced",
		},
	)

	// InsightFallbacks counts analyzer calls that fell back to placeholder content.
	InsightFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "insight",
			Name:      "fallbacks_total",
			Help:      "Total number of analyzer failures degraded to fallback content",
		},
	)
)

// Scenario metrics
var (
	// ScenariosStarted counts scenario starts.
	ScenariosStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "started_total",
			Help:      "Total number of scenarios started",
		},
	)

	// ScenariosStopped counts explicit scenario stops (not completions).
	ScenariosStopped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "stopped_total",
			Help:      "Total number of scenarios stopped before completion",
		},
	)
)
