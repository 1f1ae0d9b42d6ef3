// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

package engine

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/headliner/internal/articles"
	"github.com/tomtom215/headliner/internal/feed"
	"github.com/tomtom215/headliner/internal/metrics"
	"github.com/tomtom215/headliner/internal/profile"
)

// GetFeed returns a ranked, deduplicated, capped article feed.
//
// Ranking is best-effort: if the candidate fetch or ranking fails, the
// engine falls back to an unranked fetch of the same category, region
// and language so content is always served.
func (e *Engine) GetFeed(ctx context.Context, req FeedRequest) ([]feed.Article, error) {
	start := e.now()
	defer func() {
		metrics.FeedDuration.Observe(time.Since(start).Seconds())
	}()

	limit := req.Limit
	if limit <= 0 {
		limit = defaultFeedLimit
	}

	p := e.loadProfile(ctx, req.UserID, req.Language, req.Region)
	cfg, assembler := e.rankingState()

	pool, err := e.fetchCandidates(ctx, req, p, cfg)
	if err != nil {
		e.logger.Warn().Err(err).Str("user_id", req.UserID).Msg("candidate fetch failed, serving unranked fallback")
		return e.fallbackFeed(ctx, req, limit)
	}

	pool = dedupeByTitle(pool)

	ranked := assembler.Rank(pool, p, limit, e.now())
	if len(ranked) == 0 && len(pool) > 0 {
		// Ranking produced nothing from a non-empty pool; serve the pool
		// unranked rather than an empty feed.
		metrics.FeedRequests.WithLabelValues("fallback").Inc()
		if len(pool) > limit {
			pool = pool[:limit]
		}
		return pool, nil
	}

	if p.IsNewUser() {
		metrics.FeedRequests.WithLabelValues("balanced").Inc()
	} else {
		metrics.FeedRequests.WithLabelValues("ranked").Inc()
	}
	return ranked, nil
}

// ExplainFeed returns the per-article score traces for a user's current
// candidate pool. Diagnostics only.
func (e *Engine) ExplainFeed(ctx context.Context, req FeedRequest) ([]feed.ArticleScore, error) {
	p := e.loadProfile(ctx, req.UserID, req.Language, req.Region)
	cfg, assembler := e.rankingState()

	pool, err := e.fetchCandidates(ctx, req, p, cfg)
	if err != nil {
		return nil, err
	}
	return assembler.ScoreAll(dedupeByTitle(pool), p, e.now()), nil
}

// loadProfile returns the best available profile snapshot: the canonical
// store when online, the local mirror when offline, and a synthesized
// default when neither has one. Profile loading never fails the feed.
func (e *Engine) loadProfile(ctx context.Context, userID, language, region string) *feed.UserProfile {
	if e.connectivity.Offline() {
		if p, err := e.mirror.Get(ctx, userID); err == nil {
			return p
		}
		return feed.NewProfile(userID, language, region, e.now())
	}

	p, err := profile.GetOrCreate(ctx, e.store, userID, language, region)
	if err != nil {
		e.logger.Warn().Err(err).Str("user_id", userID).Msg("profile load failed, trying mirror")
		if mp, merr := e.mirror.Get(ctx, userID); merr == nil {
			return mp
		}
		return feed.NewProfile(userID, language, region, e.now())
	}

	// Keep the mirror warm so a later offline session still ranks with
	// learned preferences. Skipped when offline records are pending:
	// the mirror then carries optimistic updates the canonical document
	// does not have yet, and must not be clobbered.
	if pending, perr := e.queue.Pending(ctx, userID); perr == nil && len(pending) == 0 {
		if err := e.mirror.Put(ctx, p); err != nil {
			e.logger.Debug().Err(err).Str("user_id", userID).Msg("mirror refresh failed")
		}
	}
	return p
}

// fetchCandidates assembles the raw pool. With an explicit category the
// pool is that category alone; otherwise it is the union of the user's
// top categories and a small set of diversity categories, falling back
// to the default category set for profiles with no qualifying history.
func (e *Engine) fetchCandidates(ctx context.Context, req FeedRequest, p *feed.UserProfile, cfg feed.Config) ([]feed.Article, error) {
	if req.Category != "" {
		return e.source.Fetch(ctx, articles.Query{
			Language: req.Language,
			Region:   req.Region,
			Category: req.Category,
		})
	}

	categories := e.TopCategories(p, topCategoryCount, cfg)
	for _, c := range e.DiversityCategories(p) {
		if !containsCategory(categories, c.Category) {
			categories = append(categories, c)
		}
	}
	if len(categories) == 0 {
		for _, name := range feed.DefaultCategories {
			categories = append(categories, feed.CategoryPreference{Category: name})
		}
	}

	var pool []feed.Article
	var lastErr error
	for _, c := range categories {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		batch, err := e.source.Fetch(ctx, articles.Query{
			Language: req.Language,
			Region:   req.Region,
			Category: c.Category,
		})
		if err != nil {
			lastErr = err
			continue
		}
		pool = append(pool, batch...)
	}

	if len(pool) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return pool, nil
}

// fallbackFeed is the unranked, unpersonalized escape hatch.
func (e *Engine) fallbackFeed(ctx context.Context, req FeedRequest, limit int) ([]feed.Article, error) {
	pool, err := e.source.Fetch(ctx, articles.Query{
		Language: req.Language,
		Region:   req.Region,
		Category: req.Category,
		Limit:    limit,
	})
	if err != nil {
		metrics.FeedRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.FeedRequests.WithLabelValues("fallback").Inc()
	if len(pool) > limit {
		pool = pool[:limit]
	}
	return pool, nil
}

// TopCategories returns the user's strongest categories, weight-sorted
// best first, considering only categories with enough interactions to
// carry signal.
func (e *Engine) TopCategories(p *feed.UserProfile, n int, cfg feed.Config) []feed.CategoryPreference {
	var out []feed.CategoryPreference
	for _, cp := range p.CategoryPreferences {
		if cp.InteractionCount >= cfg.MinInteractionsForPreference {
			out = append(out, cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Weight > out[j].Weight
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// DiversityCategories returns categories in the middle weight band,
// candidates for keeping the feed from narrowing.
func (e *Engine) DiversityCategories(p *feed.UserProfile) []feed.CategoryPreference {
	var out []feed.CategoryPreference
	for _, cp := range p.CategoryPreferences {
		if cp.Weight >= diversityWeightMin && cp.Weight <= diversityWeightMax {
			out = append(out, cp)
		}
	}
	return out
}

// ReadingStats returns the aggregate reading statistics for a user.
func (e *Engine) ReadingStats(ctx context.Context, userID string) (*feed.ReadingStats, error) {
	p, err := profile.GetOrCreate(ctx, e.store, userID, "", "")
	if err != nil {
		// Offline or store down: the mirror still holds the local view.
		mp, merr := e.mirror.Get(ctx, userID)
		if merr != nil {
			return nil, err
		}
		p = mp
	}

	cfg := e.Config()
	return &feed.ReadingStats{
		UserID:              userID,
		TotalArticlesRead:   p.BehaviorData.TotalArticlesRead,
		TotalArticlesSaved:  p.BehaviorData.TotalArticlesSaved,
		TotalArticlesShared: p.BehaviorData.TotalArticlesShared,
		AverageReadingTime:  p.BehaviorData.AverageReadingTime,
		TopCategories:       e.TopCategories(p, topCategoryCount, cfg),
		SwipePatterns:       p.BehaviorData.SwipePatterns,
	}, nil
}

// dedupeByTitle drops candidates whose normalized (lower-cased, trimmed)
// title was already seen. A heuristic, not a content hash: punctuation
// variants of the same headline pass through.
func dedupeByTitle(pool []feed.Article) []feed.Article {
	seen := make(map[string]bool, len(pool))
	out := pool[:0]
	for _, a := range pool {
		key := strings.ToLower(strings.TrimSpace(a.Title))
		if key != "" && seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

func containsCategory(prefs []feed.CategoryPreference, category string) bool {
	for _, p := range prefs {
		if p.Category == category {
			return true
		}
	}
	return false
}
