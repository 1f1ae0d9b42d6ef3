// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

package offline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tomtom215/headliner/internal/feed"
	"github.com/tomtom215/headliner/internal/metrics"
	"github.com/tomtom215/headliner/internal/profile"
)

// ErrReconcileInFlight is returned when a reconciliation pass is already
// running. The caller should wait for the next trigger, not retry.
var ErrReconcileInFlight = errors.New("reconciliation already in flight")

// Result summarizes one reconciliation pass.
type Result struct {
	// Replayed is the number of records confirmed against the store.
	Replayed int `json:"replayed"`

	// Remaining is the number of records left queued (the unreplayed
	// tail after a failure).
	Remaining int `json:"remaining"`

	// Failed reports the error that stopped the pass, if any.
	Failed error `json:"-"`
}

// ConfigProvider yields the current personalization tuning parameters.
// The engine owns the live config; the reconciler reads it per pass so
// runtime config updates apply to replays too.
type ConfigProvider func() feed.Config

// Reconciler drains the offline queue against the canonical profile
// store. Passes are strictly serialized: a trigger that arrives while a
// pass is running returns ErrReconcileInFlight instead of starting a
// second drain.
type Reconciler struct {
	queue    *Queue
	mirror   *Mirror
	store    profile.Store
	config   ConfigProvider
	logger   zerolog.Logger
	inFlight atomic.Bool
}

// NewReconciler wires a reconciler over the queue, mirror and store.
func NewReconciler(queue *Queue, mirror *Mirror, store profile.Store, config ConfigProvider, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		queue:  queue,
		mirror: mirror,
		store:  store,
		config: config,
		logger: logger.With().Str("component", "reconciler").Logger(),
	}
}

// Reconcile replays every queued record for userID in interaction order.
//
// Each record is applied through the store's optimistic-concurrency
// update cycle and confirmed (removed) only after the remote write
// succeeds. On the first failure the pass stops, leaving the failed
// record and the tail queued for the next trigger. After a fully
// successful pass the local mirror is dropped so the next profile read
// refetches the canonical remote document.
func (r *Reconciler) Reconcile(ctx context.Context, userID string) (Result, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return Result{}, ErrReconcileInFlight
	}
	defer r.inFlight.Store(false)

	return r.reconcileUser(ctx, userID)
}

// ReconcileAll drains the queue for every user with pending records.
// Users are processed independently: one user's replay failure leaves
// their tail queued but does not stop the others.
func (r *Reconciler) ReconcileAll(ctx context.Context) (map[string]Result, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return nil, ErrReconcileInFlight
	}
	defer r.inFlight.Store(false)

	users, err := r.queue.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("list queued users: %w", err)
	}

	results := make(map[string]Result, len(users))
	for _, user := range users {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		res, err := r.reconcileUser(ctx, user)
		if err != nil {
			r.logger.Warn().Err(err).Str("user_id", user).Msg("user reconciliation incomplete")
		}
		results[user] = res
	}
	return results, nil
}

func (r *Reconciler) reconcileUser(ctx context.Context, userID string) (Result, error) {
	entries, err := r.queue.Pending(ctx, userID)
	if err != nil {
		metrics.ReconcileRuns.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("read pending queue: %w", err)
	}
	if len(entries) == 0 {
		metrics.ReconcileRuns.WithLabelValues("noop").Inc()
		return Result{}, nil
	}

	r.logger.Info().
		Str("user_id", userID).
		Int("pending", len(entries)).
		Msg("starting reconciliation")

	result := Result{}
	for i := range entries {
		entry := &entries[i]
		if err := r.replay(ctx, entry); err != nil {
			// Keep the tail: records are never dropped before their
			// remote application is confirmed.
			if markErr := r.queue.MarkAttempt(ctx, entry, err); markErr != nil {
				r.logger.Warn().Err(markErr).Str("entry_id", entry.ID).Msg("failed to record replay attempt")
			}
			result.Remaining = len(entries) - i
			result.Failed = err
			metrics.ReconcileRuns.WithLabelValues("partial").Inc()
			r.logger.Warn().
				Err(err).
				Str("user_id", userID).
				Int("replayed", result.Replayed).
				Int("remaining", result.Remaining).
				Msg("reconciliation stopped on replay failure")
			return result, fmt.Errorf("replay entry %s: %w", entry.ID, err)
		}

		if err := r.queue.Confirm(ctx, entry); err != nil {
			result.Remaining = len(entries) - i
			result.Failed = err
			metrics.ReconcileRuns.WithLabelValues("partial").Inc()
			return result, fmt.Errorf("confirm entry %s: %w", entry.ID, err)
		}

		result.Replayed++
		metrics.ReconcileReplayed.Inc()
	}

	// Every record is confirmed remote; the mirror has served its
	// purpose. Drop it so the next read refetches the canonical profile
	// instead of trusting a copy other devices may have outrun.
	if err := r.mirror.Drop(ctx, userID); err != nil {
		r.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to drop mirror after reconciliation")
	}

	metrics.ReconcileRuns.WithLabelValues("success").Inc()
	r.logger.Info().
		Str("user_id", userID).
		Int("replayed", result.Replayed).
		Msg("reconciliation complete")
	return result, nil
}

// replay applies one queued interaction to the canonical store using the
// identical weight-update rule the online path uses.
func (r *Reconciler) replay(ctx context.Context, entry *Entry) error {
	rec := entry.Record
	cfg := r.config()
	_, err := profile.Update(ctx, r.store, rec.UserID, "", "", func(p *feed.UserProfile) {
		feed.ApplyInteraction(p, rec.Category, rec.SourceID, rec.Type, cfg.CategoryWeightDecay, rec.Timestamp)
		feed.TrackBehavior(p, rec.Type, rec.Timestamp)
	})
	return err
}
