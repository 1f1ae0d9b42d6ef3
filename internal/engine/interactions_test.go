// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/tomtom215/headliner/internal/feed"
	"github.com/tomtom215/headliner/internal/profile"
)

// brokenStore fails every write while reads behave like an empty store.
type brokenStore struct {
	err error
}

func (s *brokenStore) Get(context.Context, string) (*feed.UserProfile, error) {
	return nil, profile.ErrNotFound
}

func (s *brokenStore) Put(context.Context, *feed.UserProfile) error { return s.err }

func TestRecordInteractionValidation(t *testing.T) {
	env := newTestEngine(t)
	ctx := context.Background()

	if err := env.engine.RecordInteraction(ctx, Interaction{Type: feed.InteractionRead}); err == nil {
		t.Error("expected an error for a missing user ID")
	}
	if err := env.engine.RecordInteraction(ctx, Interaction{UserID: "u1", Type: "like"}); err == nil {
		t.Error("expected an error for an unknown interaction type")
	}
}

func TestRecordInteractionOnline(t *testing.T) {
	env := newTestEngine(t)
	ctx := context.Background()

	in := Interaction{
		UserID:    "u1",
		Type:      feed.InteractionSave,
		ArticleID: "a1",
		Category:  "technology",
		SourceID:  "wired",
	}
	if err := env.engine.RecordInteraction(ctx, in); err != nil {
		t.Fatalf("RecordInteraction() error = %v", err)
	}

	// The canonical store carries the update.
	p, err := env.store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("store Get() error = %v", err)
	}
	if got := p.Category("technology").Weight; math.Abs(got-0.65) > 1e-9 {
		t.Errorf("technology weight = %v, want 0.65 after one save", got)
	}
	if p.BehaviorData.TotalArticlesSaved != 1 {
		t.Errorf("saves = %d, want 1", p.BehaviorData.TotalArticlesSaved)
	}

	// Nothing is queued on a successful online update.
	if stats := env.engine.QueueStats(); stats.PendingCount != 0 {
		t.Errorf("pending count = %d, want 0", stats.PendingCount)
	}
}

func TestRecordInteractionOffline(t *testing.T) {
	env := newTestEngine(t)
	env.conn.offline = true
	ctx := context.Background()

	in := Interaction{
		UserID:    "u1",
		Type:      feed.InteractionRead,
		ArticleID: "a1",
		Category:  "world",
		SourceID:  "bbc-news",
	}
	if err := env.engine.RecordInteraction(ctx, in); err != nil {
		t.Fatalf("RecordInteraction() error = %v", err)
	}

	// The queue holds the durable record.
	entries, err := env.queue.Pending(ctx, "u1")
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("pending = %d entries, want 1", len(entries))
	}
	if entries[0].Record.Type != feed.InteractionRead || entries[0].Record.Category != "world" {
		t.Errorf("queued record = %+v, want the recorded interaction", entries[0].Record)
	}

	// The mirror reflects the interaction optimistically.
	p, err := env.mirror.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("mirror Get() error = %v", err)
	}
	if got := p.Category("world").Weight; math.Abs(got-0.58) > 1e-9 {
		t.Errorf("mirror world weight = %v, want 0.58 after one read", got)
	}
	if p.BehaviorData.TotalArticlesRead != 1 {
		t.Errorf("mirror reads = %d, want 1", p.BehaviorData.TotalArticlesRead)
	}

	// The canonical store was never written.
	if env.store.Len() != 0 {
		t.Errorf("store profiles = %d, want 0 while offline", env.store.Len())
	}
}

func TestRecordInteractionFallsBackWhenStoreFails(t *testing.T) {
	env := newTestEngine(t)
	env.engine.store = &brokenStore{err: errors.New("store down")}
	ctx := context.Background()

	in := Interaction{
		UserID:    "u1",
		Type:      feed.InteractionShare,
		ArticleID: "a1",
		Category:  "science",
	}
	// A failed remote write must not surface: the interaction lands on
	// the offline path instead.
	if err := env.engine.RecordInteraction(ctx, in); err != nil {
		t.Fatalf("RecordInteraction() error = %v, want offline fallback", err)
	}

	entries, err := env.queue.Pending(ctx, "u1")
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("pending = %d entries, want the interaction queued", len(entries))
	}
}

func TestOfflineInteractionsAccumulateOnMirror(t *testing.T) {
	env := newTestEngine(t)
	env.conn.offline = true
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		in := Interaction{UserID: "u1", Type: feed.InteractionRead, ArticleID: "a1", Category: "world"}
		if err := env.engine.RecordInteraction(ctx, in); err != nil {
			t.Fatalf("RecordInteraction() error = %v", err)
		}
	}

	p, err := env.mirror.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("mirror Get() error = %v", err)
	}
	// Three reads: 0.5 + 3*0.08.
	if got := p.Category("world").Weight; math.Abs(got-0.74) > 1e-9 {
		t.Errorf("mirror world weight = %v, want 0.74", got)
	}
	if p.BehaviorData.TotalArticlesRead != 3 {
		t.Errorf("mirror reads = %d, want 3", p.BehaviorData.TotalArticlesRead)
	}
	if stats := env.engine.QueueStats(); stats.PendingCount != 3 {
		t.Errorf("pending count = %d, want 3", stats.PendingCount)
	}
}

func TestReconcileDrainsOfflineSession(t *testing.T) {
	env := newTestEngine(t)
	ctx := context.Background()

	// Offline session with three interactions.
	env.conn.offline = true
	interactions := []Interaction{
		{UserID: "u1", Type: feed.InteractionRead, ArticleID: "a1", Category: "technology", SourceID: "wired"},
		{UserID: "u1", Type: feed.InteractionSave, ArticleID: "a2", Category: "technology", SourceID: "wired"},
		{UserID: "u1", Type: feed.InteractionRead, ArticleID: "a3", Category: "world", SourceID: "bbc-news"},
	}
	for _, in := range interactions {
		if err := env.engine.RecordInteraction(ctx, in); err != nil {
			t.Fatalf("RecordInteraction() error = %v", err)
		}
	}

	// Connectivity returns; drain the queue.
	env.conn.offline = false
	result, err := env.engine.Reconcile(ctx, "u1")
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if result.Replayed != 3 {
		t.Errorf("replayed = %d, want 3", result.Replayed)
	}

	// The canonical store now matches the offline session.
	p, err := env.store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("store Get() error = %v", err)
	}
	if got := p.Category("technology").Weight; math.Abs(got-0.73) > 1e-9 {
		t.Errorf("technology weight = %v, want 0.73 (read then save)", got)
	}
	if p.BehaviorData.TotalArticlesRead != 2 || p.BehaviorData.TotalArticlesSaved != 1 {
		t.Errorf("behavior = %+v, want 2 reads and 1 save", p.BehaviorData)
	}

	// Queue drained, mirror discarded.
	if stats := env.engine.QueueStats(); stats.PendingCount != 0 {
		t.Errorf("pending count = %d, want 0", stats.PendingCount)
	}
	if _, err := env.mirror.Get(ctx, "u1"); err == nil {
		t.Error("mirror survived reconciliation, want it dropped")
	}
}

func TestRecordReadingTime(t *testing.T) {
	env := newTestEngine(t)
	ctx := context.Background()

	// Seed one read so the running mean has a denominator.
	if err := env.engine.RecordInteraction(ctx, Interaction{UserID: "u1", Type: feed.InteractionRead, ArticleID: "a1", Category: "world"}); err != nil {
		t.Fatalf("RecordInteraction() error = %v", err)
	}
	if err := env.engine.RecordReadingTime(ctx, "u1", 5.0); err != nil {
		t.Fatalf("RecordReadingTime() error = %v", err)
	}

	p, err := env.store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("store Get() error = %v", err)
	}
	if p.BehaviorData.AverageReadingTime != 5.0 {
		t.Errorf("average reading time = %v, want 5.0", p.BehaviorData.AverageReadingTime)
	}
}

func TestRecordSwipeOfflineGoesToMirror(t *testing.T) {
	env := newTestEngine(t)
	env.conn.offline = true
	ctx := context.Background()

	if err := env.engine.RecordSwipe(ctx, "u1", "up"); err != nil {
		t.Fatalf("RecordSwipe() error = %v", err)
	}
	if err := env.engine.RecordSwipe(ctx, "u1", "down"); err != nil {
		t.Fatalf("RecordSwipe() error = %v", err)
	}

	p, err := env.mirror.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("mirror Get() error = %v", err)
	}
	if p.BehaviorData.SwipePatterns.UpSwipes != 1 || p.BehaviorData.SwipePatterns.DownSwipes != 1 {
		t.Errorf("swipes = %+v, want one up and one down", p.BehaviorData.SwipePatterns)
	}

	// Behavior-only updates are advisory and never queued for replay.
	if stats := env.engine.QueueStats(); stats.PendingCount != 0 {
		t.Errorf("pending count = %d, want 0 for behavior-only updates", stats.PendingCount)
	}
}
