// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/headliner/internal/feed"
	"github.com/tomtom215/headliner/internal/metrics"
	"github.com/tomtom215/headliner/internal/offline"
	"github.com/tomtom215/headliner/internal/profile"
)

// RecordInteraction records one interaction through the online path, or
// falls back to the offline path (durable queue + local mirror) when the
// device is offline or the remote write fails.
//
// The offline fallback means this method never surfaces transient store
// errors: the interaction is always captured somewhere durable.
func (e *Engine) RecordInteraction(ctx context.Context, in Interaction) error {
	if in.UserID == "" {
		return fmt.Errorf("record interaction: user id required")
	}
	if !in.Type.Valid() {
		return fmt.Errorf("record interaction: unknown type %q", in.Type)
	}

	now := e.now()
	cfg := e.Config()

	if !e.connectivity.Offline() {
		_, err := profile.Update(ctx, e.store, in.UserID, "", "", func(p *feed.UserProfile) {
			feed.ApplyInteraction(p, in.Category, in.SourceID, in.Type, cfg.CategoryWeightDecay, now)
			feed.TrackBehavior(p, in.Type, now)
		})
		if err == nil {
			metrics.Interactions.WithLabelValues(string(in.Type), "remote").Inc()
			return nil
		}
		e.logger.Warn().
			Err(err).
			Str("user_id", in.UserID).
			Str("type", string(in.Type)).
			Msg("remote interaction update failed, queueing offline")
	}

	return e.recordOffline(ctx, in, now)
}

// recordOffline appends the interaction to the durable queue and applies
// the identical weight-update rule to the local mirror so on-device
// ranking reflects the interaction immediately.
func (e *Engine) recordOffline(ctx context.Context, in Interaction, now time.Time) error {
	rec := feed.OfflineInteraction{
		UserID:    in.UserID,
		Type:      in.Type,
		ArticleID: in.ArticleID,
		Category:  in.Category,
		SourceID:  in.SourceID,
		Timestamp: now,
	}

	if _, err := e.queue.Append(ctx, rec); err != nil {
		return fmt.Errorf("queue offline interaction: %w", err)
	}
	metrics.Interactions.WithLabelValues(string(in.Type), "offline").Inc()

	cfg := e.Config()
	p, err := e.mirror.Get(ctx, in.UserID)
	if err != nil {
		// No mirror yet; start one from defaults. The queued record is
		// the durable copy either way.
		p = feed.NewProfile(in.UserID, "", "", now)
	}
	feed.ApplyInteraction(p, in.Category, in.SourceID, in.Type, cfg.CategoryWeightDecay, now)
	feed.TrackBehavior(p, in.Type, now)

	if err := e.mirror.Put(ctx, p); err != nil {
		e.logger.Warn().Err(err).Str("user_id", in.UserID).Msg("mirror update failed")
	}
	return nil
}

// RecordReadingTime folds a reading session into the user's running mean
// reading time. Behavior-only: no weight delta, no offline queue record.
func (e *Engine) RecordReadingTime(ctx context.Context, userID string, minutes float64) error {
	now := e.now()
	return e.updateBehavior(ctx, userID, func(p *feed.UserProfile) {
		feed.RecordReadingTime(p, minutes, now)
	})
}

// RecordSwipe records one swipe gesture. Behavior-only.
func (e *Engine) RecordSwipe(ctx context.Context, userID, direction string) error {
	now := e.now()
	return e.updateBehavior(ctx, userID, func(p *feed.UserProfile) {
		feed.RecordSwipe(p, direction, now)
	})
}

// updateBehavior applies a behavior-only mutation remotely when online,
// or to the mirror when offline. Behavior aggregates are advisory, so a
// lost update here is acceptable and not queued for replay.
func (e *Engine) updateBehavior(ctx context.Context, userID string, fn func(*feed.UserProfile)) error {
	if userID == "" {
		return fmt.Errorf("update behavior: user id required")
	}

	if !e.connectivity.Offline() {
		_, err := profile.Update(ctx, e.store, userID, "", "", fn)
		if err == nil {
			return nil
		}
		e.logger.Warn().Err(err).Str("user_id", userID).Msg("remote behavior update failed, applying to mirror")
	}

	p, err := e.mirror.Get(ctx, userID)
	if err != nil {
		p = feed.NewProfile(userID, "", "", e.now())
	}
	fn(p)
	if err := e.mirror.Put(ctx, p); err != nil {
		return fmt.Errorf("mirror behavior update: %w", err)
	}
	return nil
}

// Reconcile drains the user's offline queue against the canonical store.
// Triggered by the connectivity-restored signal.
func (e *Engine) Reconcile(ctx context.Context, userID string) (offline.Result, error) {
	return e.reconciler.Reconcile(ctx, userID)
}
