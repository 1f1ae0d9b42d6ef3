// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

// Package profile provides access to the canonical user profile store.
//
// Profiles are stored as whole documents, one per user, guarded by an
// optimistic-concurrency version token: a write is rejected unless the
// caller's Version matches the stored document, which prevents the silent
// last-writer-wins loss that plain read-modify-write would allow when two
// interactions race for the same user.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/headliner/internal/feed"
	"github.com/tomtom215/headliner/internal/metrics"
)

// ErrNotFound is returned when no profile exists for a user.
// Callers synthesize a default profile rather than surfacing this.
var ErrNotFound = errors.New("profile not found")

// ErrVersionConflict is returned when a write's version token does not
// match the stored document. The caller should re-read and retry.
var ErrVersionConflict = errors.New("profile version conflict")

// maxUpdateRetries bounds the re-read/retry loop on version conflicts.
const maxUpdateRetries = 3

// Store is the canonical profile store contract.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the stored profile for userID, or ErrNotFound.
	Get(ctx context.Context, userID string) (*feed.UserProfile, error)

	// Put writes the whole profile document. The write succeeds only if
	// profile.Version matches the stored version (or the profile is new);
	// on success the stored version is incremented. Returns
	// ErrVersionConflict on mismatch.
	Put(ctx context.Context, profile *feed.UserProfile) error
}

// Mutator mutates a profile in place during an Update pass.
type Mutator func(p *feed.UserProfile)

// Update runs a read-modify-write cycle against store with bounded
// retries on version conflicts. A missing profile is synthesized with
// defaults before fn is applied, so first-touch users are handled
// transparently.
func Update(ctx context.Context, store Store, userID, language, region string, fn Mutator) (*feed.UserProfile, error) {
	var lastErr error
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		p, err := store.Get(ctx, userID)
		switch {
		case errors.Is(err, ErrNotFound):
			p = feed.NewProfile(userID, language, region, time.Now().UTC())
		case err != nil:
			return nil, fmt.Errorf("get profile %s: %w", userID, err)
		}

		fn(p)

		if err := store.Put(ctx, p); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				metrics.ProfileConflicts.Inc()
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("put profile %s: %w", userID, err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("update profile %s: retries exhausted: %w", userID, lastErr)
}

// GetOrCreate returns the stored profile, or a fresh default profile
// (persisted) when none exists.
func GetOrCreate(ctx context.Context, store Store, userID, language, region string) (*feed.UserProfile, error) {
	p, err := store.Get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}

	p = feed.NewProfile(userID, language, region, time.Now().UTC())
	if err := store.Put(ctx, p); err != nil {
		// A concurrent creator won the race; their document is canonical.
		if errors.Is(err, ErrVersionConflict) {
			return store.Get(ctx, userID)
		}
		return nil, fmt.Errorf("create profile %s: %w", userID, err)
	}
	return p, nil
}
