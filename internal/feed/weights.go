// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

package feed

import (
	"math"
	"time"
)

// decayInterval is the elapsed time after which one decay step applies.
const decayInterval = 7 * 24 * time.Hour

// ApplyInteraction applies one interaction to the profile in place.
//
// The touched category and source entries are created at the neutral seed
// weight if absent, then shifted by the interaction's delta and clamped to
// [0, 1]. Every *other* category preference is lazily decayed based on how
// many whole weeks have passed since it was last reinforced; ranking reads
// never trigger decay.
//
// The function is total: out-of-range inputs are clamped, never rejected.
// Persistence is the caller's responsibility.
func ApplyInteraction(profile *UserProfile, category, sourceID string, typ InteractionType, decay float64, now time.Time) {
	delta := typ.Delta()

	cp := profile.Category(category)
	if cp == nil {
		profile.CategoryPreferences = append(profile.CategoryPreferences, CategoryPreference{
			Category: category,
			Weight:   seedWeight,
		})
		cp = &profile.CategoryPreferences[len(profile.CategoryPreferences)-1]
	}
	cp.Weight = clamp01(cp.Weight + delta)
	cp.InteractionCount++
	cp.LastInteraction = now

	if sourceID != "" {
		sp := profile.Source(sourceID)
		if sp == nil {
			profile.SourcePreferences = append(profile.SourcePreferences, SourcePreference{
				SourceID: sourceID,
				Weight:   seedWeight,
			})
			sp = &profile.SourcePreferences[len(profile.SourcePreferences)-1]
		}
		sp.Weight = clamp01(sp.Weight + delta)
		sp.InteractionCount++
		sp.LastInteraction = now
	}

	for i := range profile.CategoryPreferences {
		p := &profile.CategoryPreferences[i]
		if p.Category == category {
			continue
		}
		p.Weight = decayedWeight(p.Weight, p.LastInteraction, decay, now)
	}

	profile.UpdatedAt = now
}

// decayedWeight returns weight after applying one decay multiplier per
// whole week elapsed since lastInteraction. A zero lastInteraction (never
// reinforced, e.g. a pre-seeded default category) is left untouched so
// seeds keep their neutral weight until the user shows a signal.
func decayedWeight(weight float64, lastInteraction time.Time, decay float64, now time.Time) float64 {
	if lastInteraction.IsZero() {
		return weight
	}
	elapsed := now.Sub(lastInteraction)
	if elapsed < decayInterval {
		return weight
	}
	weeks := math.Floor(elapsed.Hours() / (24 * 7))
	return clamp01(weight * math.Pow(decay, weeks))
}

// TrackBehavior updates the behavioral aggregates for one interaction.
// Behavior updates are deliberately separate from ApplyInteraction: the
// preference weights and the aggregate counters are distinct concerns and
// some callers (e.g. swipe tracking) touch only one of them.
func TrackBehavior(profile *UserProfile, typ InteractionType, now time.Time) {
	b := &profile.BehaviorData
	switch typ {
	case InteractionRead:
		b.TotalArticlesRead++
		b.AddPreferredHour(now.Hour())
	case InteractionSave:
		b.TotalArticlesSaved++
	case InteractionShare:
		b.TotalArticlesShared++
	case InteractionSkip:
		// Skips carry weight signal only; no aggregate counter.
	}
	profile.UpdatedAt = now
}

// RecordReadingTime folds one reading session (in minutes) into the
// running mean. Sessions of zero or negative length are ignored.
func RecordReadingTime(profile *UserProfile, minutes float64, now time.Time) {
	if minutes <= 0 {
		return
	}
	b := &profile.BehaviorData
	// Running mean over read count; the first session sets the mean.
	n := float64(b.TotalArticlesRead)
	if n <= 1 {
		b.AverageReadingTime = minutes
	} else {
		b.AverageReadingTime += (minutes - b.AverageReadingTime) / n
	}
	profile.UpdatedAt = now
}

// RecordSwipe updates the swipe counters. Direction "up" advances,
// anything else counts as a down swipe.
func RecordSwipe(profile *UserProfile, direction string, now time.Time) {
	if direction == "up" {
		profile.BehaviorData.SwipePatterns.UpSwipes++
	} else {
		profile.BehaviorData.SwipePatterns.DownSwipes++
	}
	profile.UpdatedAt = now
}

// clamp01 clamps v to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
