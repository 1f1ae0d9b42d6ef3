// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

package articles

import (
	"context"
	"sync"

	"github.com/tomtom215/headliner/internal/feed"
)

// MemorySource is a static in-memory Source for development and tests.
type MemorySource struct {
	mu       sync.RWMutex
	articles []feed.Article
}

// NewMemorySource creates a source over a fixed article set.
func NewMemorySource(articles []feed.Article) *MemorySource {
	return &MemorySource{articles: articles}
}

// Add appends articles to the pool.
func (s *MemorySource) Add(articles ...feed.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles = append(s.articles, articles...)
}

// Fetch filters the static pool by the query.
func (s *MemorySource) Fetch(_ context.Context, q Query) ([]feed.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []feed.Article
	for _, a := range s.articles {
		if q.Category != "" && a.Category != q.Category {
			continue
		}
		if q.Language != "" && a.Language != "" && a.Language != q.Language {
			continue
		}
		if q.Region != "" && a.Country != "" && a.Country != q.Region {
			continue
		}
		out = append(out, a)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

var _ Source = (*MemorySource)(nil)
