// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

// Package main is the entry point for the Headliner server.
//
// Headliner ranks a pool of candidate news articles for a user by
// blending learned topical and source affinity, content recency and
// feed diversity. Interactions recorded while the canonical profile
// store is unreachable are captured in a durable local queue and
// replayed once connectivity returns.
//
// # Startup order
//
//  1. Configuration: Koanf v2 layering (defaults, config.yaml, HEADLINER_* env)
//  2. Logging: zerolog, JSON or console
//  3. Offline store: BadgerDB queue and mirror
//  4. Profile store and article source (remote or in-memory backend)
//  5. Engine: scoring, assembly, interaction recording
//  6. Supervision tree: HTTP server and reconciler loop under suture
//
// # Signal handling
//
// SIGINT and SIGTERM cancel the root context; the supervision tree
// shuts the HTTP server down gracefully and the offline store is closed
// last so queued interactions are never lost.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/headliner/internal/api"
	"github.com/tomtom215/headliner/internal/articles"
	"github.com/tomtom215/headliner/internal/config"
	"github.com/tomtom215/headliner/internal/engine"
	"github.com/tomtom215/headliner/internal/feed"
	"github.com/tomtom215/headliner/internal/logging"
	"github.com/tomtom215/headliner/internal/offline"
	"github.com/tomtom215/headliner/internal/profile"
	"github.com/tomtom215/headliner/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(cfg.Logging)
	logger := logging.Logger()
	logger.Info().
		Str("profiles_backend", string(cfg.Profiles.Backend)).
		Msg("starting headliner")

	queue, err := offline.Open(cfg.Offline)
	if err != nil {
		return fmt.Errorf("open offline store: %w", err)
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn().Err(err).Msg("offline store close failed")
		}
	}()

	store := buildProfileStore(cfg)
	source := buildArticleSource(cfg)

	eng, err := engine.New(engine.Options{
		Store:  store,
		Source: source,
		Queue:  queue,
		Config: cfg.Personalization,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	handler := api.NewHandler(eng)
	router := api.NewRouter(handler, api.RouterConfig{
		Timeout:   cfg.Server.Timeout,
		RateLimit: cfg.Server.RateLimit,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	tree := supervisor.NewTree(slog.New(slog.NewJSONHandler(os.Stderr, nil)), supervisor.DefaultTreeConfig())
	tree.Add(supervisor.NewHTTPService(server, 10*time.Second))
	tree.Add(supervisor.NewReconcileService(eng.Reconciler(), cfg.Reconcile.Interval, logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("addr", server.Addr).Msg("headliner listening")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervision tree: %w", err)
	}

	logger.Info().Msg("headliner stopped")
	return nil
}

// buildProfileStore constructs the configured profile store backend.
func buildProfileStore(cfg *config.Config) profile.Store {
	if cfg.Profiles.Backend == config.BackendRemote {
		return profile.NewRemoteStore(cfg.Profiles.Remote)
	}
	return profile.NewMemoryStore()
}

// buildArticleSource constructs the configured article source backend.
func buildArticleSource(cfg *config.Config) articles.Source {
	if cfg.Articles.Backend == config.BackendRemote {
		return articles.NewClient(cfg.Articles.Remote)
	}
	return articles.NewMemorySource([]feed.Article{})
}
