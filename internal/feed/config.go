// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

package feed

import (
	"fmt"
)

// seedWeight is the neutral affinity assigned to a category or source
// before any interaction evidence exists.
const seedWeight = 0.5

// newUserReadThreshold is the read count below which a user gets the
// balanced (non-personalized) feed. Weight-based relevance is meaningless
// with near-zero interaction history.
const newUserReadThreshold = 10

// Config holds the personalization tuning parameters.
// It is process-wide and adjustable at runtime via the config API.
type Config struct {
	// CategoryWeightDecay is the weekly decay multiplier applied to
	// preferences not reinforced for more than a week.
	CategoryWeightDecay float64 `json:"category_weight_decay" koanf:"category_weight_decay"`

	// MinInteractionsForPreference is the interaction count a preference
	// needs before its weight participates in relevance scoring.
	MinInteractionsForPreference int `json:"min_interactions_for_preference" koanf:"min_interactions_for_preference"`

	// DiversityFactor blends diversity against relevance in the final
	// score, in [0, 1]. 0 disables diversity entirely.
	DiversityFactor float64 `json:"diversity_factor" koanf:"diversity_factor"`

	// RecencyBoost is the additive weight of the recency score.
	RecencyBoost float64 `json:"recency_boost" koanf:"recency_boost"`

	// MaxArticlesPerCategory caps how many articles of one category the
	// assembler accepts into a single feed.
	MaxArticlesPerCategory int `json:"max_articles_per_category" koanf:"max_articles_per_category"`
}

// DefaultConfig returns the documented default tuning parameters.
func DefaultConfig() Config {
	return Config{
		CategoryWeightDecay:          0.95,
		MinInteractionsForPreference: 3,
		DiversityFactor:              0.3,
		RecencyBoost:                 0.2,
		MaxArticlesPerCategory:       3,
	}
}

// Validate checks parameter ranges.
func (c Config) Validate() error {
	if c.CategoryWeightDecay <= 0 || c.CategoryWeightDecay > 1 {
		return fmt.Errorf("category_weight_decay must be in (0, 1], got %v", c.CategoryWeightDecay)
	}
	if c.MinInteractionsForPreference < 0 {
		return fmt.Errorf("min_interactions_for_preference must be >= 0, got %d", c.MinInteractionsForPreference)
	}
	if c.DiversityFactor < 0 || c.DiversityFactor > 1 {
		return fmt.Errorf("diversity_factor must be in [0, 1], got %v", c.DiversityFactor)
	}
	if c.RecencyBoost < 0 {
		return fmt.Errorf("recency_boost must be >= 0, got %v", c.RecencyBoost)
	}
	if c.MaxArticlesPerCategory < 1 {
		return fmt.Errorf("max_articles_per_category must be >= 1, got %d", c.MaxArticlesPerCategory)
	}
	return nil
}

// ConfigPatch is a partial config update. Nil fields are left unchanged.
type ConfigPatch struct {
	CategoryWeightDecay          *float64 `json:"category_weight_decay,omitempty"`
	MinInteractionsForPreference *int     `json:"min_interactions_for_preference,omitempty"`
	DiversityFactor              *float64 `json:"diversity_factor,omitempty"`
	RecencyBoost                 *float64 `json:"recency_boost,omitempty"`
	MaxArticlesPerCategory       *int     `json:"max_articles_per_category,omitempty"`
}

// Merge returns a copy of c with the non-nil patch fields applied.
// The result is validated before being returned; an invalid patch leaves
// the original config in force.
func (c Config) Merge(patch ConfigPatch) (Config, error) {
	out := c
	if patch.CategoryWeightDecay != nil {
		out.CategoryWeightDecay = *patch.CategoryWeightDecay
	}
	if patch.MinInteractionsForPreference != nil {
		out.MinInteractionsForPreference = *patch.MinInteractionsForPreference
	}
	if patch.DiversityFactor != nil {
		out.DiversityFactor = *patch.DiversityFactor
	}
	if patch.RecencyBoost != nil {
		out.RecencyBoost = *patch.RecencyBoost
	}
	if patch.MaxArticlesPerCategory != nil {
		out.MaxArticlesPerCategory = *patch.MaxArticlesPerCategory
	}
	if err := out.Validate(); err != nil {
		return c, err
	}
	return out, nil
}
