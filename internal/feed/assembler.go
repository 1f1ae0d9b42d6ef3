// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

package feed

import (
	"sort"
	"time"
)

// balancedPerCategory is how many recent articles each category
// contributes to the new-user balanced feed.
const balancedPerCategory = 3

// Assembler orders a candidate pool into a final feed.
// It is pure and deterministic: a fixed candidate slice and profile
// snapshot always produce the same output, with the original candidate
// order as the tie-break.
type Assembler struct {
	scorer *Scorer
	config Config
}

// NewAssembler creates an assembler using the given tuning parameters.
func NewAssembler(config Config) *Assembler {
	return &Assembler{
		scorer: NewScorer(config),
		config: config,
	}
}

// Rank orders articles best-first for the profile, applying the
// per-category cap, and truncates to limit (0 means no limit).
//
// Users with fewer than ten reads get the balanced feed instead of
// weighted scoring: learned weights carry no signal yet, so the feed is
// built from category breadth and recency alone.
func (a *Assembler) Rank(articles []Article, profile *UserProfile, limit int, now time.Time) []Article {
	if len(articles) == 0 {
		return nil
	}

	if profile.IsNewUser() {
		return truncate(a.balancedFeed(articles), limit)
	}

	return truncate(a.scoredFeed(articles, profile, limit, now), limit)
}

// scoredFeed runs the full scoring pass and walks the sorted list
// enforcing MaxArticlesPerCategory. Articles over the cap are skipped,
// not re-ranked; the walk continues until the pool is exhausted or the
// limit is reached.
func (a *Assembler) scoredFeed(articles []Article, profile *UserProfile, limit int, now time.Time) []Article {
	type scored struct {
		article Article
		score   ArticleScore
	}

	items := make([]scored, 0, len(articles))
	for i := range articles {
		items = append(items, scored{
			article: articles[i],
			score:   a.scorer.Score(&articles[i], profile, now),
		})
	}

	// Stable preserves candidate order among equal scores.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score.FinalScore > items[j].score.FinalScore
	})

	perCategory := make(map[string]int)
	out := make([]Article, 0, len(items))
	for _, item := range items {
		if perCategory[item.score.Category] >= a.config.MaxArticlesPerCategory {
			continue
		}
		perCategory[item.score.Category]++
		out = append(out, item.article)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// balancedFeed groups candidates by category, takes the most recent few
// from priority categories first and then from the rest, and sorts the
// combined set by recency.
func (a *Assembler) balancedFeed(articles []Article) []Article {
	byCategory := make(map[string][]Article)
	var order []string
	for _, art := range articles {
		if _, ok := byCategory[art.Category]; !ok {
			order = append(order, art.Category)
		}
		byCategory[art.Category] = append(byCategory[art.Category], art)
	}

	priority := make(map[string]bool, len(PriorityCategories))
	for _, c := range PriorityCategories {
		priority[c] = true
	}

	// Priority categories first, in their fixed order, then the remaining
	// categories in first-seen candidate order.
	var categories []string
	for _, c := range PriorityCategories {
		if _, ok := byCategory[c]; ok {
			categories = append(categories, c)
		}
	}
	for _, c := range order {
		if !priority[c] {
			categories = append(categories, c)
		}
	}

	var out []Article
	for _, c := range categories {
		group := byCategory[c]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].PublishedAt.After(group[j].PublishedAt)
		})
		n := balancedPerCategory
		if n > len(group) {
			n = len(group)
		}
		out = append(out, group[:n]...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out
}

// ScoreAll returns the diagnostic score trace for every candidate,
// sorted best-first. Used by the API for explainability; never by Rank.
func (a *Assembler) ScoreAll(articles []Article, profile *UserProfile, now time.Time) []ArticleScore {
	scores := make([]ArticleScore, 0, len(articles))
	for i := range articles {
		scores = append(scores, a.scorer.Score(&articles[i], profile, now))
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].FinalScore > scores[j].FinalScore
	})
	return scores
}

func truncate(articles []Article, limit int) []Article {
	if limit > 0 && len(articles) > limit {
		return articles[:limit]
	}
	return articles
}
