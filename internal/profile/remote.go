// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

package profile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/headliner/internal/feed"
	"github.com/tomtom215/headliner/internal/logging"
	"github.com/tomtom215/headliner/internal/metrics"
)

// RemoteConfig configures the remote profile store client.
type RemoteConfig struct {
	// URL is the profile service base URL.
	URL string `koanf:"url"`

	// APIKey authenticates requests, sent as X-Api-Key.
	APIKey string `koanf:"api_key"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond rate-limits outgoing requests. 0 disables limiting.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// RemoteStore is the HTTP client for the canonical profile service.
//
// All calls go through a circuit breaker: when the profile service is
// down, requests fail fast instead of stacking up, and the engine falls
// back to the offline path. The breaker uses real time for its recovery
// window; tests should exercise the transport, not the breaker.
type RemoteStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*feed.UserProfile]
}

// NewRemoteStore creates a client for the remote profile service.
func NewRemoteStore(cfg RemoteConfig) *RemoteStore {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1)
	}

	breaker := gobreaker.NewCircuitBreaker[*feed.UserProfile](gobreaker.Settings{
		Name:        "profile-store",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("profile store circuit breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
		IsSuccessful: func(err error) bool {
			// Not-found and version conflicts are well-formed outcomes,
			// not service failures; they must not trip the breaker.
			return err == nil || err == ErrNotFound || err == ErrVersionConflict
		},
	})

	return &RemoteStore{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		breaker: breaker,
	}
}

// Get fetches the profile document for userID.
func (s *RemoteStore) Get(ctx context.Context, userID string) (*feed.UserProfile, error) {
	return s.breaker.Execute(func() (*feed.UserProfile, error) {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.profileURL(userID), http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		s.setHeaders(req)

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("profile get: %w", err)
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
			var p feed.UserProfile
			if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
				return nil, fmt.Errorf("decode profile: %w", err)
			}
			return &p, nil
		case http.StatusNotFound:
			return nil, ErrNotFound
		default:
			return nil, fmt.Errorf("profile get: unexpected status %d", resp.StatusCode)
		}
	})
}

// Put writes the profile document with its version token. The service
// performs the compare-and-swap and responds 409 on a version mismatch.
func (s *RemoteStore) Put(ctx context.Context, profile *feed.UserProfile) error {
	_, err := s.breaker.Execute(func() (*feed.UserProfile, error) {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}

		body, err := json.Marshal(profile)
		if err != nil {
			return nil, fmt.Errorf("encode profile: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.profileURL(profile.UserID), bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		s.setHeaders(req)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("profile put: %w", err)
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusNoContent:
			// The service owns version assignment; reflect it locally so
			// subsequent writes in the same cycle carry the right token.
			profile.Version++
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil, nil
		case http.StatusConflict:
			return nil, ErrVersionConflict
		default:
			return nil, fmt.Errorf("profile put: unexpected status %d", resp.StatusCode)
		}
	})
	return err
}

func (s *RemoteStore) profileURL(userID string) string {
	return fmt.Sprintf("%s/api/v1/users/%s/profile", s.baseURL, url.PathEscape(userID))
}

func (s *RemoteStore) setHeaders(req *http.Request) {
	if s.apiKey != "" {
		req.Header.Set("X-Api-Key", s.apiKey)
	}
	req.Header.Set("Accept", "application/json")
}

func (s *RemoteStore) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

var _ Store = (*RemoteStore)(nil)
