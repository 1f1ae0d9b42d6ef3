// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

// Package articles adapts the external article-ingestion backend into a
// candidate pool source for the feed engine. The backend itself (RSS
// ingestion, summarization) is an external collaborator; this package
// only fetches already-ingested candidates.
package articles

import (
	"context"

	"github.com/tomtom215/headliner/internal/feed"
)

// Query selects a candidate pool.
type Query struct {
	// Language filters by article language (ISO 639-1).
	Language string

	// Region filters by country code (ISO 3166-1 alpha-2).
	Region string

	// Category restricts the pool to one category. Empty means all.
	Category string

	// Limit caps the pool size. 0 uses the source's default.
	Limit int
}

// Source supplies candidate articles for ranking.
// Implementations must be safe for concurrent use.
type Source interface {
	// Fetch returns candidate articles matching the query.
	Fetch(ctx context.Context, q Query) ([]feed.Article, error)
}
