// Package metrics provides Prometheus metrics for the Desafio core.
// Counters cover answers, points, coins, gate runs, and storage health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Scoring ────────────────────────────────────────────────────────────────

// AnswersTotal counts answers by result (correct, wrong, review).
var AnswersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "desafio",
	Name:      "answers_total",
	Help:      "Total answers processed by result.",
}, []string{"result"})

// PointsAwarded counts points granted for correct answers.
var PointsAwarded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "desafio",
	Name:      "points_awarded_total",
	Help:      "Total points awarded for correct answers.",
})

// PointsPerAnswer tracks the distribution of points per correct answer.
var PointsPerAnswer = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "desafio",
	Name:      "points_per_answer",
	Help:      "Points awarded per correct answer.",
	Buckets:   []float64{20, 30, 40, 60, 80, 100, 130},
})

// MilestonesReached counts 500-point session milestones.
var MilestonesReached = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "desafio",
	Name:      "milestones_total",
	Help:      "Total score milestones reached.",
})

// ─── Economy ────────────────────────────────────────────────────────────────

// CoinsGranted counts coins granted by reason.
var CoinsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "desafio",
	Name:      "coins_granted_total",
	Help:      "Total coins granted by reason.",
}, []string{"reason"})

// CoinsSpent counts coins spent by reason.
var CoinsSpent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "desafio",
	Name:      "coins_spent_total",
	Help:      "Total coins spent by reason.",
}, []string{"reason"})

// LevelUnlocks counts newly unlocked levels.
var LevelUnlocks = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "desafio",
	Name:      "level_unlocks_total",
	Help:      "Total level unlocks by level.",
}, []string{"level"})

// ─── Gate ───────────────────────────────────────────────────────────────────

// GateReservations counts reservation attempts (new, resumed, denied).
var GateReservations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "desafio",
	Name:      "gate_reservations_total",
	Help:      "Total portal reservation attempts by result.",
}, []string{"result"})

// GateRuns counts finished portal runs by outcome.
var GateRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "desafio",
	Name:      "gate_runs_total",
	Help:      "Total finished portal runs by outcome.",
}, []string{"outcome"})

// ─── Storage ────────────────────────────────────────────────────────────────

// MigrationKeys counts keys processed by the plain-to-secure migration.
var MigrationKeys = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "desafio",
	Name:      "migration_keys_total",
	Help:      "Keys processed by storage migration by result.",
}, []string{"result"})

// SecureStoreFallbacks counts falls back to the unencrypted tier.
var SecureStoreFallbacks = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "desafio",
	Name:      "secure_store_fallback_total",
	Help:      "Times encrypted storage was unavailable.",
})

// StoreWriteErrors counts write failures swallowed by the core.
var StoreWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "desafio",
	Name:      "store_write_errors_total",
	Help:      "Preference writes that failed and were logged.",
})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "desafio",
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})

// HealthRecoveries tracks auto-recovery attempts.
var HealthRecoveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "desafio",
	Name:      "health_recoveries_total",
	Help:      "Total auto-recovery attempts per check.",
}, []string{"check"})

// ─── Leaderboard ────────────────────────────────────────────────────────────

// LeaderboardRetries counts weekly submission retries (scheduled, dropped).
var LeaderboardRetries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "desafio",
	Name:      "leaderboard_retries_total",
	Help:      "Weekly leaderboard submissions queued for retry or dropped.",
}, []string{"result"})
