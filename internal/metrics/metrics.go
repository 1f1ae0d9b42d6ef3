// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

// Package metrics provides Prometheus instrumentation for Headliner:
// feed assembly latency, interaction recording by path (remote vs.
// offline), offline queue depth, reconciliation outcomes, and the
// profile-store circuit breaker state.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedRequests counts feed requests by outcome
	// (ranked, balanced, fallback, error).
	FeedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "headliner_feed_requests_total",
			Help: "Total number of feed requests by outcome",
		},
		[]string{"outcome"},
	)

	// FeedDuration observes the end-to-end feed assembly latency.
	FeedDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "headliner_feed_duration_seconds",
			Help:    "Feed assembly latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Interactions counts recorded interactions by type and path.
	// Path is "remote" when the canonical store accepted the update and
	// "offline" when the interaction was queued locally.
	Interactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "headliner_interactions_total",
			Help: "Total interactions recorded, by type and path",
		},
		[]string{"type", "path"},
	)

	// QueueDepth is the current number of pending offline records.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "headliner_offline_queue_depth",
			Help: "Number of pending offline interaction records",
		},
	)

	// QueueAppends counts offline queue appends.
	QueueAppends = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "headliner_offline_queue_appends_total",
			Help: "Total offline interaction records appended",
		},
	)

	// ReconcileRuns counts reconciliation passes by result
	// (success, partial, noop, error).
	ReconcileRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "headliner_reconcile_runs_total",
			Help: "Total reconciliation passes by result",
		},
		[]string{"result"},
	)

	// ReconcileReplayed counts offline records successfully replayed
	// against the canonical store.
	ReconcileReplayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "headliner_reconcile_replayed_total",
			Help: "Total offline records replayed to the profile store",
		},
	)

	// BreakerState exposes the circuit breaker state per breaker
	// (0 = closed, 1 = half-open, 2 = open).
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "headliner_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"breaker"},
	)

	// ProfileConflicts counts optimistic-concurrency write conflicts.
	ProfileConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "headliner_profile_version_conflicts_total",
			Help: "Total profile writes rejected on version mismatch",
		},
	)
)
