// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

package feed

import (
	"math"
	"testing"
	"time"
)

func TestRecencyBuckets(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scorer := NewScorer(DefaultConfig())

	tests := []struct {
		name string
		age  time.Duration
		want float64
	}{
		{"just published", 0, 1.0},
		{"under one hour", 59 * time.Minute, 1.0},
		{"one hour exactly", time.Hour, 0.9},
		{"under six hours", 5*time.Hour + 59*time.Minute, 0.9},
		{"six hours exactly", 6 * time.Hour, 0.7},
		{"under a day", 23*time.Hour + 59*time.Minute, 0.7},
		{"one day exactly", 24 * time.Hour, 0.5},
		{"under three days", 71 * time.Hour, 0.5},
		{"three days exactly", 72 * time.Hour, 0.3},
		{"under a week", 167 * time.Hour, 0.3},
		{"one week exactly", 168 * time.Hour, 0.1},
		{"one month", 30 * 24 * time.Hour, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reasons []string
			got := scorer.recency(now.Add(-tt.age), now, &reasons)
			if got != tt.want {
				t.Errorf("recency(age=%v) = %v, want %v", tt.age, got, tt.want)
			}
		})
	}
}

func TestRelevanceUnqualifiedPreferenceUsesSeed(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scorer := NewScorer(DefaultConfig())

	profile := NewProfile("u1", "en", "us", now)
	// Two interactions is below the qualification threshold of three, so
	// the learned weight must not participate.
	cp := profile.Category("technology")
	cp.Weight = 0.9
	cp.InteractionCount = 2

	article := Article{ID: "a1", Category: "technology", SourceID: "wired"}
	var reasons []string
	got := scorer.relevance(&article, profile, now, &reasons)
	if got != 0.5 {
		t.Errorf("relevance with unqualified preference = %v, want neutral 0.5", got)
	}
}

func TestRelevanceQualifiedCategory(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scorer := NewScorer(DefaultConfig())

	profile := NewProfile("u1", "en", "us", now)
	cp := profile.Category("technology")
	cp.Weight = 0.9
	cp.InteractionCount = 10

	article := Article{ID: "a1", Category: "technology", SourceID: "wired"}
	var reasons []string
	got := scorer.relevance(&article, profile, now, &reasons)
	if math.Abs(got-0.9) > 1e-9 {
		t.Errorf("relevance with qualified category = %v, want 0.9", got)
	}
}

func TestRelevanceQualifiedSourceAverages(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scorer := NewScorer(DefaultConfig())

	profile := NewProfile("u1", "en", "us", now)
	cp := profile.Category("technology")
	cp.Weight = 0.8
	cp.InteractionCount = 10
	profile.SourcePreferences = []SourcePreference{{
		SourceID:         "wired",
		Weight:           0.4,
		InteractionCount: 5,
	}}

	article := Article{ID: "a1", Category: "technology", SourceID: "wired"}
	var reasons []string
	got := scorer.relevance(&article, profile, now, &reasons)
	if math.Abs(got-0.6) > 1e-9 {
		t.Errorf("relevance with qualified source = %v, want mean 0.6", got)
	}
}

func TestRelevanceSourceIgnoredWithoutQualifiedCategory(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scorer := NewScorer(DefaultConfig())

	profile := NewProfile("u1", "en", "us", now)
	// Source qualifies but the category does not; the source weight must
	// not be consulted on its own.
	profile.SourcePreferences = []SourcePreference{{
		SourceID:         "wired",
		Weight:           0.95,
		InteractionCount: 10,
	}}

	article := Article{ID: "a1", Category: "technology", SourceID: "wired"}
	var reasons []string
	got := scorer.relevance(&article, profile, now, &reasons)
	if got != 0.5 {
		t.Errorf("relevance = %v, want 0.5 when only the source qualifies", got)
	}
}

func TestRelevanceBonuses(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	scorer := NewScorer(DefaultConfig())

	profile := NewProfile("u1", "en", "us", now)
	profile.BehaviorData.AddPreferredHour(9)

	article := Article{
		ID:       "a1",
		Category: "technology",
		SourceID: "wired",
		Language: "en",
		Country:  "us",
	}
	var reasons []string
	got := scorer.relevance(&article, profile, now, &reasons)
	// Neutral 0.5 plus language 0.1, region 0.1 and preferred hour 0.05.
	if math.Abs(got-0.75) > 1e-9 {
		t.Errorf("relevance with all bonuses = %v, want 0.75", got)
	}
}

func TestRelevanceClampsAtOne(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	scorer := NewScorer(DefaultConfig())

	profile := NewProfile("u1", "en", "us", now)
	cp := profile.Category("technology")
	cp.Weight = 0.95
	cp.InteractionCount = 10
	profile.BehaviorData.AddPreferredHour(9)

	article := Article{
		ID:       "a1",
		Category: "technology",
		Language: "en",
		Country:  "us",
	}
	var reasons []string
	got := scorer.relevance(&article, profile, now, &reasons)
	if got != 1.0 {
		t.Errorf("relevance = %v, want clamp to 1.0", got)
	}
}

func TestDiversityScore(t *testing.T) {
	scorer := NewScorer(DefaultConfig())

	tests := []struct {
		name string
		cp   *CategoryPreference
		want float64
	}{
		{"no preference favors discovery", nil, 0.8},
		{"unqualified preference favors discovery", &CategoryPreference{InteractionCount: 2}, 0.8},
		{"ten interactions", &CategoryPreference{InteractionCount: 10}, 0.5},
		{"saturated at twenty", &CategoryPreference{InteractionCount: 20}, 0.0},
		{"over saturation stays zero", &CategoryPreference{InteractionCount: 50}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.diversity(tt.cp)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("diversity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreBlend(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scorer := NewScorer(DefaultConfig())

	profile := NewProfile("u1", "en", "us", now)
	cp := profile.Category("technology")
	cp.Weight = 0.9
	cp.InteractionCount = 10

	// Two hours old: recency 0.9, diversity 1-10/20 = 0.5, relevance 0.9.
	article := Article{
		ID:          "a1",
		Category:    "technology",
		SourceID:    "wired",
		PublishedAt: now.Add(-2 * time.Hour),
	}
	score := scorer.Score(&article, profile, now)

	want := 0.9*0.7 + 0.5*0.3 + 0.9*0.2
	if math.Abs(score.FinalScore-want) > 1e-9 {
		t.Errorf("final score = %v, want %v", score.FinalScore, want)
	}
	if score.Category != "technology" {
		t.Errorf("score category = %q, want technology", score.Category)
	}
	if len(score.Reasons) == 0 {
		t.Error("expected a non-empty reason trace")
	}
}

func TestScoreCapsAtOne(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	scorer := NewScorer(DefaultConfig())

	profile := NewProfile("u1", "en", "us", now)
	cp := profile.Category("technology")
	cp.Weight = 1.0
	cp.InteractionCount = 3

	// Relevance 1.0 (weight plus bonuses, clamped), diversity
	// 1-3/20 = 0.85, recency 1.0. The uncapped blend exceeds 1.0.
	article := Article{
		ID:          "a1",
		Category:    "technology",
		Language:    "en",
		Country:     "us",
		PublishedAt: now.Add(-10 * time.Minute),
	}
	score := scorer.Score(&article, profile, now)
	if score.FinalScore != 1.0 {
		t.Errorf("final score = %v, want cap at 1.0", score.FinalScore)
	}
}

func TestScoreIsPure(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scorer := NewScorer(DefaultConfig())

	profile := NewProfile("u1", "en", "us", now)
	before := profile.Clone()

	article := Article{ID: "a1", Category: "technology", PublishedAt: now.Add(-time.Hour)}
	first := scorer.Score(&article, profile, now)
	second := scorer.Score(&article, profile, now)

	if first.FinalScore != second.FinalScore {
		t.Errorf("repeated scoring diverged: %v vs %v", first.FinalScore, second.FinalScore)
	}
	if profile.Category("technology").InteractionCount != before.Category("technology").InteractionCount {
		t.Error("scoring mutated the profile")
	}
	if !profile.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("scoring touched the profile timestamp")
	}
}
