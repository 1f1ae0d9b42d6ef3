// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig tunes the router middleware.
type RouterConfig struct {
	// Timeout bounds request handling.
	Timeout time.Duration

	// RateLimit is the per-IP request limit per minute. 0 disables.
	RateLimit int
}

// NewRouter builds the chi router with the standard middleware stack.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Timeout > 0 {
		r.Use(middleware.Timeout(cfg.Timeout))
	}
	if cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/feed/{userID}", func(r chi.Router) {
			r.Get("/", h.GetFeed)
			r.Get("/explain", h.ExplainFeed)
		})

		r.Post("/interactions", h.RecordInteraction)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/stats", h.GetReadingStats)
			r.Post("/reading-time", h.RecordReadingTime)
			r.Post("/swipes", h.RecordSwipe)
			r.Post("/reconcile", h.TriggerReconcile)
		})

		r.Route("/personalization/config", func(r chi.Router) {
			r.Get("/", h.GetConfig)
			r.Patch("/", h.PatchConfig)
		})

		r.Get("/queue/stats", h.GetQueueStats)
	})

	return r
}
