// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

package supervisor

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/headliner/internal/offline"
)

// Drainer drains the offline queue. Implemented by offline.Reconciler.
type Drainer interface {
	ReconcileAll(ctx context.Context) (map[string]offline.Result, error)
}

// ReconcileService periodically drains the offline interaction queue and
// also drains immediately on an explicit connectivity-restored trigger.
//
// A failed pass is not retried in a hot loop: the next tick (or trigger)
// picks the queue tail up again.
type ReconcileService struct {
	drainer  Drainer
	interval time.Duration
	trigger  chan struct{}
	logger   zerolog.Logger
}

// NewReconcileService creates the reconciliation loop service.
func NewReconcileService(drainer Drainer, interval time.Duration, logger zerolog.Logger) *ReconcileService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ReconcileService{
		drainer:  drainer,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		logger:   logger.With().Str("component", "reconcile-service").Logger(),
	}
}

// Trigger requests an immediate drain. Used as the connectivity-restored
// callback. Coalesces: a trigger while one is pending is a no-op.
func (s *ReconcileService) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Serve implements suture.Service.
func (s *ReconcileService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.drain(ctx)
		case <-s.trigger:
			s.drain(ctx)
		}
	}
}

func (s *ReconcileService) drain(ctx context.Context) {
	results, err := s.drainer.ReconcileAll(ctx)
	if err != nil {
		if errors.Is(err, offline.ErrReconcileInFlight) {
			return
		}
		s.logger.Warn().Err(err).Msg("reconciliation pass failed")
		return
	}

	for user, res := range results {
		if res.Replayed > 0 || res.Remaining > 0 {
			s.logger.Info().
				Str("user_id", user).
				Int("replayed", res.Replayed).
				Int("remaining", res.Remaining).
				Msg("queue drained")
		}
	}
}

// String names the service in supervisor logs.
func (s *ReconcileService) String() string { return "reconciler" }
