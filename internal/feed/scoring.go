// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

package feed

import (
	"fmt"
	"time"
)

// exposureSaturation is the interaction count at which a category's
// diversity score reaches zero.
const exposureSaturation = 20

// unexploredDiversity is the diversity score for categories the user has
// no qualifying preference for, strongly favoring discovery.
const unexploredDiversity = 0.8

// Scorer computes per-article scores against a profile snapshot.
// Scoring is pure and side-effect free; a Scorer may be shared across
// goroutines as long as the config is not mutated concurrently.
type Scorer struct {
	config Config
}

// NewScorer creates a scorer with the given tuning parameters.
func NewScorer(config Config) *Scorer {
	return &Scorer{config: config}
}

// Score computes the relevance, recency, diversity and blended final
// score for one article against one profile, evaluated at now.
func (s *Scorer) Score(article *Article, profile *UserProfile, now time.Time) ArticleScore {
	score := ArticleScore{
		ArticleID: article.ID,
		Category:  article.Category,
	}

	score.RelevanceScore = s.relevance(article, profile, now, &score.Reasons)
	score.RecencyScore = s.recency(article.PublishedAt, now, &score.Reasons)
	score.DiversityScore = s.diversity(profile.Category(article.Category))

	// Relevance and diversity are blended; recency is an additive boost.
	// The sum can exceed 1.0 before the cap, which is accepted: the cap
	// preserves ordering among uncapped scores and keeps the output bounded.
	final := score.RelevanceScore*(1-s.config.DiversityFactor) +
		score.DiversityScore*s.config.DiversityFactor +
		score.RecencyScore*s.config.RecencyBoost
	if final > 1.0 {
		final = 1.0
	}
	score.FinalScore = final

	return score
}

// relevance starts at the neutral seed and substitutes learned affinity
// only once a preference has enough interaction evidence to qualify.
func (s *Scorer) relevance(article *Article, profile *UserProfile, now time.Time, reasons *[]string) float64 {
	relevance := seedWeight

	cp := profile.Category(article.Category)
	if cp != nil && cp.InteractionCount >= s.config.MinInteractionsForPreference {
		relevance = cp.Weight
		*reasons = append(*reasons, fmt.Sprintf("category %q preference %.2f", cp.Category, cp.Weight))

		// A qualifying source averages with, never adds to, the category
		// weight so a strong source cannot push relevance past its own value.
		sp := profile.Source(article.SourceID)
		if sp != nil && sp.InteractionCount >= s.config.MinInteractionsForPreference {
			relevance = (cp.Weight + sp.Weight) / 2
			*reasons = append(*reasons, fmt.Sprintf("source %q preference %.2f", sp.SourceID, sp.Weight))
		}
	}

	if article.Language != "" && article.Language == profile.Language {
		relevance += 0.1
		*reasons = append(*reasons, "language match")
	}
	if article.Country != "" && article.Country == profile.Region {
		relevance += 0.1
		*reasons = append(*reasons, "region match")
	}
	if profile.BehaviorData.HasPreferredHour(now.Hour()) {
		relevance += 0.05
		*reasons = append(*reasons, "preferred reading hour")
	}

	return clamp01(relevance)
}

// recency is a step function of article age. The buckets are deliberately
// non-linear so an article a few hours old is barely penalized while
// week-old content drops sharply.
func (s *Scorer) recency(publishedAt, now time.Time, reasons *[]string) float64 {
	age := now.Sub(publishedAt)

	var score float64
	var bucket string
	switch {
	case age < time.Hour:
		score, bucket = 1.0, "<1h"
	case age < 6*time.Hour:
		score, bucket = 0.9, "<6h"
	case age < 24*time.Hour:
		score, bucket = 0.7, "<24h"
	case age < 72*time.Hour:
		score, bucket = 0.5, "<72h"
	case age < 168*time.Hour:
		score, bucket = 0.3, "<168h"
	default:
		score, bucket = 0.1, ">=168h"
	}

	*reasons = append(*reasons, "recency bucket "+bucket)
	return score
}

// diversity is inverse exposure: unexplored categories are strongly
// favored, and heavily-read categories approach zero.
func (s *Scorer) diversity(cp *CategoryPreference) float64 {
	if cp == nil || cp.InteractionCount < s.config.MinInteractionsForPreference {
		return unexploredDiversity
	}
	exposure := float64(cp.InteractionCount) / exposureSaturation
	if exposure > 1 {
		exposure = 1
	}
	return 1 - exposure
}
