// Package metrics defines and registers all custom Prometheus metrics for the
// aidcore case-management API. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "aidcore"

// ── Authentication metrics ────────────────────────────────────────────────────

// AuthAttemptsTotal counts login and refresh attempts.
// Labels:
//   - kind: "login" or "refresh"
//   - outcome: "success", "invalid", "unauthenticated", "forbidden" or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of login and token refresh attempts, by outcome.",
	},
	[]string{"kind", "outcome"},
)

// ── Case metrics ──────────────────────────────────────────────────────────────

// CasesCreatedTotal counts newly created cases.
// Label:
//   - priority: "low", "medium", "high" or "urgent"
var CasesCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cases_created_total",
		Help:      "Total number of cases created, by priority.",
	},
	[]string{"priority"},
)

// CaseReplaysTotal counts POST /cases requests answered from an earlier
// Idempotency-Key instead of creating a case.
var CaseReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "case_replays_total",
		Help:      "Total number of idempotent case creation replays.",
	},
)

// ── Activity trail metrics ────────────────────────────────────────────────────

// ActivityRecordedTotal counts activity events written to the trail.
// Label:
//   - action: the activity action (e.g. "case.created")
var ActivityRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_recorded_total",
		Help:      "Total number of activity events persisted.",
	},
	[]string{"action"},
)

// ActivityErrorsTotal counts activity events lost before reaching the trail.
// Label:
//   - reason: "queue_full", "stopped" or "record_failed"
var ActivityErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_errors_total",
		Help:      "Total number of activity events that were dropped or failed to persist.",
	},
	[]string{"reason"},
)

// ActivityQueueDepth tracks the number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ActivityQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "activity_queue_depth",
		Help:      "Current number of activity events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ActivityRecordDuration measures how long persisting one activity event takes.
var ActivityRecordDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "activity_record_duration_seconds",
		Help:      "Duration of activity event persistence from dequeue to write.",
		Buckets:   prometheus.DefBuckets,
	},
)
