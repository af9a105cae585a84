package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AccessDecisions records evaluated access decisions by result (allow|deny) and outcome kind.
	AccessDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgegate_access_decisions_total",
			Help: "Total number of access decisions",
		},
		[]string{"result", "kind"},
	)

	// SnapshotBuilds counts fallback snapshot builds by result (success|failure).
	SnapshotBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgegate_snapshot_builds_total",
			Help: "Total number of fallback snapshot builds",
		},
		[]string{"result"},
	)

	// SnapshotBuildDuration measures how long a fallback snapshot build takes.
	SnapshotBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "badgegate_snapshot_build_duration_seconds",
			Help:    "Fallback snapshot build duration",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SnapshotCache counts fallback cache lookups by outcome (hit|miss|refresh|bypass).
	SnapshotCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgegate_snapshot_cache_total",
			Help: "Fallback snapshot cache lookups",
		},
		[]string{"outcome"},
	)

	// ReportedErrors counts failures handed to the error sink by component.
	ReportedErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgegate_reported_errors_total",
			Help: "Total number of errors reported to the error sink",
		},
		[]string{"component"},
	)

	// AdminAuthorizations counts admin permission checks by permission and result
	// (allowed|denied).
	AdminAuthorizations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgegate_admin_authorizations_total",
			Help: "Admin API permission checks",
		},
		[]string{"permission", "result"},
	)

	// RateLimited counts requests rejected by the rate limiter per route.
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgegate_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"path"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "badgegate_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

var (
	// MaintenanceRuns counts scheduled job executions by job and result (success|failure).
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgegate_maintenance_runs_total",
			Help: "Total number of maintenance job runs",
		},
		[]string{"job", "result"},
	)

	// MaintenanceDuration measures maintenance job durations.
	MaintenanceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "badgegate_maintenance_duration_seconds",
			Help:    "Maintenance job duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)
)
