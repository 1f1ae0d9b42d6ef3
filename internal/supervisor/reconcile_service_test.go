// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/headliner/internal/offline"
)

// countingDrainer records drain calls.
type countingDrainer struct {
	calls atomic.Int64
	err   error
}

func (d *countingDrainer) ReconcileAll(context.Context) (map[string]offline.Result, error) {
	d.calls.Add(1)
	if d.err != nil {
		return nil, d.err
	}
	return map[string]offline.Result{"u1": {Replayed: 1}}, nil
}

func TestReconcileServiceTriggerDrains(t *testing.T) {
	drainer := &countingDrainer{}
	svc := NewReconcileService(drainer, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = svc.Serve(ctx)
		close(done)
	}()

	svc.Trigger()

	deadline := time.After(2 * time.Second)
	for drainer.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("trigger did not cause a drain")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestReconcileServiceTriggerCoalesces(t *testing.T) {
	svc := NewReconcileService(&countingDrainer{}, time.Hour, zerolog.Nop())

	// Without a running Serve loop, repeated triggers must not block.
	for i := 0; i < 10; i++ {
		svc.Trigger()
	}
}

func TestReconcileServicePeriodicDrain(t *testing.T) {
	drainer := &countingDrainer{}
	svc := NewReconcileService(drainer, 20*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = svc.Serve(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for drainer.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("ticker did not cause periodic drains")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestReconcileServiceSurvivesDrainErrors(t *testing.T) {
	drainer := &countingDrainer{err: errors.New("store down")}
	svc := NewReconcileService(drainer, 20*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() error = %v, want the context deadline, not the drain error", err)
	}
	if drainer.calls.Load() == 0 {
		t.Error("no drain attempts despite the ticker")
	}
}

func TestReconcileServiceStopsOnCancel(t *testing.T) {
	svc := NewReconcileService(&countingDrainer{}, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}
