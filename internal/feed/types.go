// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

package feed

import (
	"time"
)

// InteractionType classifies user-article interactions for preference learning.
type InteractionType string

const (
	// InteractionRead indicates the article was opened and read.
	InteractionRead InteractionType = "read"
	// InteractionSave indicates the article was saved for later.
	InteractionSave InteractionType = "save"
	// InteractionShare indicates the article was shared.
	InteractionShare InteractionType = "share"
	// InteractionSkip indicates the article was dismissed without reading.
	InteractionSkip InteractionType = "skip"
)

// Delta returns the preference-weight delta for this interaction type.
// Saves are the strongest positive signal; skips are the only negative one.
func (t InteractionType) Delta() float64 {
	switch t {
	case InteractionSave:
		return 0.15
	case InteractionShare:
		return 0.12
	case InteractionRead:
		return 0.08
	case InteractionSkip:
		return -0.05
	default:
		return 0
	}
}

// Valid reports whether t is a known interaction type.
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionRead, InteractionSave, InteractionShare, InteractionSkip:
		return true
	default:
		return false
	}
}

// CategoryPreference tracks a user's learned affinity for one category.
// Entries are created on first interaction (or pre-seeded at the default
// weight) and never deleted; decay only reduces the weight.
type CategoryPreference struct {
	// Category is the category identifier (e.g. "technology").
	Category string `json:"category"`

	// Weight is the affinity score in [0, 1]. 0.5 is the neutral seed.
	Weight float64 `json:"weight"`

	// InteractionCount is the number of interactions with this category.
	InteractionCount int `json:"interaction_count"`

	// LastInteraction is when this preference was last reinforced.
	LastInteraction time.Time `json:"last_interaction"`
}

// SourcePreference tracks a user's learned affinity for one news source.
// Unlike categories, sources are never pre-seeded; an entry exists only
// after the first interaction with that source.
type SourcePreference struct {
	// SourceID is the source identifier (e.g. "bbc-news").
	SourceID string `json:"source_id"`

	// Weight is the affinity score in [0, 1]. 0.5 is the neutral seed.
	Weight float64 `json:"weight"`

	// InteractionCount is the number of interactions with this source.
	InteractionCount int `json:"interaction_count"`

	// LastInteraction is when this preference was last reinforced.
	LastInteraction time.Time `json:"last_interaction"`
}

// SwipePatterns holds aggregate swipe counters.
type SwipePatterns struct {
	// UpSwipes counts upward swipes (advance to next article).
	UpSwipes int `json:"up_swipes"`

	// DownSwipes counts downward swipes (return to previous article).
	DownSwipes int `json:"down_swipes"`
}

// BehaviorData holds aggregate behavioral counters for a user.
// All counters are monotonic; AverageReadingTime is a running mean.
type BehaviorData struct {
	// TotalArticlesRead counts read interactions.
	TotalArticlesRead int `json:"total_articles_read"`

	// TotalArticlesSaved counts save interactions.
	TotalArticlesSaved int `json:"total_articles_saved"`

	// TotalArticlesShared counts share interactions.
	TotalArticlesShared int `json:"total_articles_shared"`

	// AverageReadingTime is the running mean reading time in minutes.
	AverageReadingTime float64 `json:"average_reading_time"`

	// PreferredReadingTimes is the append-only set of hours-of-day (0-23)
	// during which the user has read articles.
	PreferredReadingTimes []int `json:"preferred_reading_times"`

	// SwipePatterns holds aggregate swipe counters.
	SwipePatterns SwipePatterns `json:"swipe_patterns"`
}

// HasPreferredHour reports whether hour is in the preferred reading times.
func (b *BehaviorData) HasPreferredHour(hour int) bool {
	for _, h := range b.PreferredReadingTimes {
		if h == hour {
			return true
		}
	}
	return false
}

// AddPreferredHour records hour as a preferred reading time if not present.
func (b *BehaviorData) AddPreferredHour(hour int) {
	if hour < 0 || hour > 23 || b.HasPreferredHour(hour) {
		return
	}
	b.PreferredReadingTimes = append(b.PreferredReadingTimes, hour)
}

// UserProfile is the canonical per-user personalization document.
// It is the unit of storage: the profile store reads and writes whole
// profiles, guarded by the Version field for optimistic concurrency.
type UserProfile struct {
	// UserID is the profile owner.
	UserID string `json:"user_id"`

	// Language is the user's preferred content language (ISO 639-1).
	Language string `json:"language"`

	// Region is the user's region/country code (ISO 3166-1 alpha-2).
	Region string `json:"region"`

	// CategoryPreferences holds one entry per category, unique by category.
	CategoryPreferences []CategoryPreference `json:"category_preferences"`

	// SourcePreferences holds one entry per source, unique by source ID.
	SourcePreferences []SourcePreference `json:"source_preferences"`

	// BehaviorData holds aggregate behavioral counters.
	BehaviorData BehaviorData `json:"behavior_data"`

	// CreatedAt is when the profile was first created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the profile was last modified.
	UpdatedAt time.Time `json:"updated_at"`

	// Version is the optimistic-concurrency token. The store rejects a
	// write whose Version does not match the stored document, and
	// increments it on every successful write.
	Version int `json:"version"`
}

// DefaultCategories is the category list seeded into every new profile.
var DefaultCategories = []string{
	"general", "national", "world", "business", "technology",
	"sports", "entertainment", "science", "health",
}

// PriorityCategories are surfaced first on the new-user balanced path,
// before any remaining categories.
var PriorityCategories = []string{
	"general", "national", "world", "business", "technology",
}

// NewProfile creates a profile with default category seeds.
// Every default category starts at the neutral weight with zero history.
func NewProfile(userID, language, region string, now time.Time) *UserProfile {
	prefs := make([]CategoryPreference, 0, len(DefaultCategories))
	for _, c := range DefaultCategories {
		prefs = append(prefs, CategoryPreference{
			Category: c,
			Weight:   seedWeight,
		})
	}
	return &UserProfile{
		UserID:              userID,
		Language:            language,
		Region:              region,
		CategoryPreferences: prefs,
		SourcePreferences:   make([]SourcePreference, 0),
		CreatedAt:           now,
		UpdatedAt:           now,
		Version:             1,
	}
}

// IsNewUser reports whether the user has too little reading history for
// weighted scoring to carry signal.
func (p *UserProfile) IsNewUser() bool {
	return p.BehaviorData.TotalArticlesRead < newUserReadThreshold
}

// Category returns a pointer to the preference for category, or nil.
func (p *UserProfile) Category(category string) *CategoryPreference {
	for i := range p.CategoryPreferences {
		if p.CategoryPreferences[i].Category == category {
			return &p.CategoryPreferences[i]
		}
	}
	return nil
}

// Source returns a pointer to the preference for sourceID, or nil.
func (p *UserProfile) Source(sourceID string) *SourcePreference {
	for i := range p.SourcePreferences {
		if p.SourcePreferences[i].SourceID == sourceID {
			return &p.SourcePreferences[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the profile.
// The offline mirror and the scoring pass both work on copies so that
// concurrent readers never observe a half-applied update.
func (p *UserProfile) Clone() *UserProfile {
	out := *p
	out.CategoryPreferences = make([]CategoryPreference, len(p.CategoryPreferences))
	copy(out.CategoryPreferences, p.CategoryPreferences)
	out.SourcePreferences = make([]SourcePreference, len(p.SourcePreferences))
	copy(out.SourcePreferences, p.SourcePreferences)
	out.BehaviorData.PreferredReadingTimes = make([]int, len(p.BehaviorData.PreferredReadingTimes))
	copy(out.BehaviorData.PreferredReadingTimes, p.BehaviorData.PreferredReadingTimes)
	return &out
}

// Article is an externally supplied candidate item, read-only to this engine.
type Article struct {
	// ID is the unique article identifier.
	ID string `json:"id"`

	// Title is the headline.
	Title string `json:"title"`

	// Description is the summary or lede.
	Description string `json:"description,omitempty"`

	// Category is the article's category identifier.
	Category string `json:"category"`

	// SourceID identifies the publishing source.
	SourceID string `json:"source_id"`

	// Language is the article language (ISO 639-1).
	Language string `json:"language,omitempty"`

	// Country is the article's country code (ISO 3166-1 alpha-2).
	Country string `json:"country,omitempty"`

	// PublishedAt is the publication timestamp.
	PublishedAt time.Time `json:"published_at"`
}

// ArticleScore is a transient per-ranking-pass value. It carries the
// article's category explicitly so the per-category diversity cap can be
// enforced over the sorted score list without a lookup back into the pool.
type ArticleScore struct {
	// ArticleID is the scored article.
	ArticleID string `json:"article_id"`

	// Category is the scored article's category.
	Category string `json:"category"`

	// RelevanceScore reflects learned category/source affinity plus
	// language, region and reading-time bonuses, in [0, 1].
	RelevanceScore float64 `json:"relevance_score"`

	// DiversityScore favors under-explored categories, in [0, 1].
	DiversityScore float64 `json:"diversity_score"`

	// RecencyScore is the step-bucketed age score, in [0.1, 1].
	RecencyScore float64 `json:"recency_score"`

	// FinalScore is the blended score, capped at 1.0.
	FinalScore float64 `json:"final_score"`

	// Reasons is a human-readable trace for diagnostics only.
	// It never participates in ranking.
	Reasons []string `json:"reasons,omitempty"`
}

// OfflineInteraction is one queued interaction recorded while the device
// was offline or a remote write failed. Records are replayed in timestamp
// order during reconciliation and removed only after remote confirmation.
type OfflineInteraction struct {
	// UserID is the interacting user.
	UserID string `json:"user_id"`

	// Type is the interaction type.
	Type InteractionType `json:"type"`

	// ArticleID is the article interacted with.
	ArticleID string `json:"article_id"`

	// Category is the article's category.
	Category string `json:"category"`

	// SourceID is the article's source.
	SourceID string `json:"source_id"`

	// Timestamp is when the interaction occurred on the device.
	Timestamp time.Time `json:"timestamp"`
}

// ReadingStats is the aggregate view returned by the reading-stats API.
type ReadingStats struct {
	// UserID is the profile owner.
	UserID string `json:"user_id"`

	// TotalArticlesRead counts read interactions.
	TotalArticlesRead int `json:"total_articles_read"`

	// TotalArticlesSaved counts save interactions.
	TotalArticlesSaved int `json:"total_articles_saved"`

	// TotalArticlesShared counts share interactions.
	TotalArticlesShared int `json:"total_articles_shared"`

	// AverageReadingTime is the running mean reading time in minutes.
	AverageReadingTime float64 `json:"average_reading_time"`

	// TopCategories is the user's strongest categories, best first.
	TopCategories []CategoryPreference `json:"top_categories"`

	// SwipePatterns holds aggregate swipe counters.
	SwipePatterns SwipePatterns `json:"swipe_patterns"`
}
