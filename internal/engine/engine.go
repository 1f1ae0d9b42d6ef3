// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

// Package engine orchestrates the personalized feed: it loads profiles,
// fetches candidate pools, routes between the new-user and experienced-
// user paths, records interactions through the online or offline path,
// and serves reading statistics.
//
// All collaborators are injected explicitly; the package holds no global
// state. Personalization is best-effort throughout: every failure path
// degrades to an unranked but functional feed rather than an error.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/headliner/internal/articles"
	"github.com/tomtom215/headliner/internal/feed"
	"github.com/tomtom215/headliner/internal/offline"
	"github.com/tomtom215/headliner/internal/profile"
)

// defaultFeedLimit is used when a feed request carries no limit.
const defaultFeedLimit = 20

// topCategoryCount is how many preferred categories feed the candidate
// pool when no explicit category is requested.
const topCategoryCount = 5

// Diversity categories sit in the middle weight band: not yet loved,
// not yet rejected.
const (
	diversityWeightMin = 0.3
	diversityWeightMax = 0.6
)

// Connectivity reports the device's network state.
// Supplied by an external collaborator.
type Connectivity interface {
	// Offline reports whether the device is currently offline.
	Offline() bool
}

// AlwaysOnline is a Connectivity for server deployments with no offline
// signal source.
type AlwaysOnline struct{}

// Offline always returns false.
func (AlwaysOnline) Offline() bool { return false }

// FeedRequest describes one feed query.
type FeedRequest struct {
	// UserID identifies the requesting user.
	UserID string

	// Language is the user's content language, used for profile creation
	// and candidate fetching.
	Language string

	// Region is the user's region code.
	Region string

	// Category restricts the feed to one category. Empty means the
	// engine picks categories from the profile.
	Category string

	// Limit caps the returned feed. 0 uses the default.
	Limit int
}

// Interaction describes one tracked user interaction.
type Interaction struct {
	// UserID is the interacting user.
	UserID string

	// Type is the interaction type.
	Type feed.InteractionType

	// ArticleID is the article interacted with.
	ArticleID string

	// Category is the article's category.
	Category string

	// SourceID is the article's source.
	SourceID string
}

// Engine is the feed orchestrator. Safe for concurrent use.
type Engine struct {
	store        profile.Store
	source       articles.Source
	queue        *offline.Queue
	mirror       *offline.Mirror
	reconciler   *offline.Reconciler
	connectivity Connectivity
	logger       zerolog.Logger

	// config is the live tuning; assembler is rebuilt on config change.
	mu        sync.RWMutex
	config    feed.Config
	assembler *feed.Assembler

	// now is the clock, swappable in tests.
	now func() time.Time
}

// Options carries the engine's injected collaborators.
type Options struct {
	Store        profile.Store
	Source       articles.Source
	Queue        *offline.Queue
	Mirror       *offline.Mirror
	Connectivity Connectivity
	Config       feed.Config
	Logger       zerolog.Logger
}

// New creates an engine. Store, Source and Queue are required; a nil
// Connectivity defaults to always-online.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("engine: profile store required")
	}
	if opts.Source == nil {
		return nil, errors.New("engine: article source required")
	}
	if opts.Queue == nil {
		return nil, errors.New("engine: offline queue required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("engine: invalid config: %w", err)
	}

	connectivity := opts.Connectivity
	if connectivity == nil {
		connectivity = AlwaysOnline{}
	}
	mirror := opts.Mirror
	if mirror == nil {
		mirror = offline.NewMirror(opts.Queue)
	}

	e := &Engine{
		store:        opts.Store,
		source:       opts.Source,
		queue:        opts.Queue,
		mirror:       mirror,
		connectivity: connectivity,
		logger:       opts.Logger.With().Str("component", "engine").Logger(),
		config:       opts.Config,
		assembler:    feed.NewAssembler(opts.Config),
		now:          func() time.Time { return time.Now().UTC() },
	}
	e.reconciler = offline.NewReconciler(opts.Queue, mirror, opts.Store, e.Config, opts.Logger)
	return e, nil
}

// Config returns the current tuning parameters.
func (e *Engine) Config() feed.Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config
}

// UpdateConfig applies a partial config update and returns the resulting
// config. An invalid patch leaves the current config in force.
func (e *Engine) UpdateConfig(patch feed.ConfigPatch) (feed.Config, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	merged, err := e.config.Merge(patch)
	if err != nil {
		return e.config, err
	}
	e.config = merged
	e.assembler = feed.NewAssembler(merged)
	e.logger.Info().
		Float64("decay", merged.CategoryWeightDecay).
		Float64("diversity_factor", merged.DiversityFactor).
		Float64("recency_boost", merged.RecencyBoost).
		Int("max_per_category", merged.MaxArticlesPerCategory).
		Msg("personalization config updated")
	return merged, nil
}

// Reconciler exposes the engine's reconciler for the connectivity-
// restored trigger.
func (e *Engine) Reconciler() *offline.Reconciler {
	return e.reconciler
}

// QueueStats returns offline queue counters.
func (e *Engine) QueueStats() offline.Stats {
	return e.queue.Stats()
}

// rankingState snapshots the config and assembler together so a ranking
// pass never mixes parameters from two config generations.
func (e *Engine) rankingState() (feed.Config, *feed.Assembler) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config, e.assembler
}
