// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

package profile

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/headliner/internal/feed"
)

// MemoryStore is an in-memory Store used in development mode and tests.
// It enforces the same version-token semantics as the remote store.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*feed.UserProfile
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]*feed.UserProfile)}
}

// Get returns a copy of the stored profile, or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, userID string) (*feed.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

// Put stores the profile if its version matches the stored document.
// On success both the stored copy and the caller's profile carry the
// incremented version.
func (s *MemoryStore) Put(_ context.Context, profile *feed.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.profiles[profile.UserID]
	if ok && existing.Version != profile.Version {
		return ErrVersionConflict
	}

	profile.Version++
	profile.UpdatedAt = time.Now().UTC()
	s.profiles[profile.UserID] = profile.Clone()
	return nil
}

// Delete removes a profile. Supports explicit data-erasure requests.
func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, userID)
	return nil
}

// Len returns the number of stored profiles.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

var _ Store = (*MemoryStore)(nil)
