// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/tomtom215/headliner/internal/engine"
	"github.com/tomtom215/headliner/internal/feed"
	"github.com/tomtom215/headliner/internal/offline"
)

// Handler serves the feed engine API.
type Handler struct {
	engine   *engine.Engine
	validate *validator.Validate
}

// NewHandler creates an API handler over the engine.
func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{
		engine:   eng,
		validate: validator.New(),
	}
}

// GetFeed handles GET /api/v1/feed/{userID}.
// Query parameters: language, region, category, limit.
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "User ID required", nil)
		return
	}

	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "INVALID_LIMIT", "Limit must be a non-negative integer", err)
			return
		}
		limit = parsed
	}

	req := engine.FeedRequest{
		UserID:   userID,
		Language: q.Get("language"),
		Region:   q.Get("region"),
		Category: q.Get("category"),
		Limit:    limit,
	}

	articles, err := h.engine.GetFeed(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "FEED_ERROR", "Failed to assemble feed", err)
		return
	}
	respondList(w, http.StatusOK, articles, len(articles))
}

// ExplainFeed handles GET /api/v1/feed/{userID}/explain.
// Returns the score trace for every candidate. Diagnostics only.
func (h *Handler) ExplainFeed(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "User ID required", nil)
		return
	}

	q := r.URL.Query()
	scores, err := h.engine.ExplainFeed(r.Context(), engine.FeedRequest{
		UserID:   userID,
		Language: q.Get("language"),
		Region:   q.Get("region"),
		Category: q.Get("category"),
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "EXPLAIN_ERROR", "Failed to score candidates", err)
		return
	}
	respondList(w, http.StatusOK, scores, len(scores))
}

// interactionRequest is the POST /api/v1/interactions payload.
type interactionRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	Type      string `json:"type" validate:"required,oneof=read save share skip"`
	ArticleID string `json:"article_id" validate:"required"`
	Category  string `json:"category" validate:"required"`
	SourceID  string `json:"source_id"`
}

// RecordInteraction handles POST /api/v1/interactions.
func (h *Handler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid interaction payload", err)
		return
	}

	err := h.engine.RecordInteraction(r.Context(), engine.Interaction{
		UserID:    req.UserID,
		Type:      feed.InteractionType(req.Type),
		ArticleID: req.ArticleID,
		Category:  req.Category,
		SourceID:  req.SourceID,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERACTION_ERROR", "Failed to record interaction", err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

// readingTimeRequest is the POST /api/v1/users/{userID}/reading-time payload.
type readingTimeRequest struct {
	Minutes float64 `json:"minutes" validate:"required,gt=0"`
}

// RecordReadingTime handles POST /api/v1/users/{userID}/reading-time.
func (h *Handler) RecordReadingTime(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req readingTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Minutes must be positive", err)
		return
	}

	if err := h.engine.RecordReadingTime(r.Context(), userID, req.Minutes); err != nil {
		respondError(w, http.StatusInternalServerError, "BEHAVIOR_ERROR", "Failed to record reading time", err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

// swipeRequest is the POST /api/v1/users/{userID}/swipes payload.
type swipeRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

// RecordSwipe handles POST /api/v1/users/{userID}/swipes.
func (h *Handler) RecordSwipe(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req swipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Direction must be up or down", err)
		return
	}

	if err := h.engine.RecordSwipe(r.Context(), userID, req.Direction); err != nil {
		respondError(w, http.StatusInternalServerError, "BEHAVIOR_ERROR", "Failed to record swipe", err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

// GetReadingStats handles GET /api/v1/users/{userID}/stats.
func (h *Handler) GetReadingStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "User ID required", nil)
		return
	}

	stats, err := h.engine.ReadingStats(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STATS_ERROR", "Failed to load reading stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GetConfig handles GET /api/v1/personalization/config.
func (h *Handler) GetConfig(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Config())
}

// PatchConfig handles PATCH /api/v1/personalization/config.
// Fields absent from the body are left unchanged.
func (h *Handler) PatchConfig(w http.ResponseWriter, r *http.Request) {
	var patch feed.ConfigPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON", err)
		return
	}

	merged, err := h.engine.UpdateConfig(patch)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_CONFIG", "Config patch rejected", err)
		return
	}
	respondJSON(w, http.StatusOK, merged)
}

// GetQueueStats handles GET /api/v1/queue/stats.
func (h *Handler) GetQueueStats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.QueueStats())
}

// TriggerReconcile handles POST /api/v1/users/{userID}/reconcile.
// Exposed for the connectivity-restored signal and for operators.
func (h *Handler) TriggerReconcile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "User ID required", nil)
		return
	}

	result, err := h.engine.Reconcile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, offline.ErrReconcileInFlight) {
			respondError(w, http.StatusConflict, "RECONCILE_IN_FLIGHT", "A reconciliation pass is already running", err)
			return
		}
		// Partial progress is reported alongside the error code.
		respondJSON(w, http.StatusAccepted, map[string]interface{}{
			"replayed":  result.Replayed,
			"remaining": result.Remaining,
			"complete":  false,
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"replayed":  result.Replayed,
		"remaining": result.Remaining,
		"complete":  true,
	})
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
