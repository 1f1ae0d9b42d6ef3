// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

package offline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/headliner/internal/feed"
)

// ErrNoMirror is returned when no mirror profile exists for a user.
var ErrNoMirror = errors.New("no mirror profile")

// Mirror persists the optimistic local profile copy used while offline.
// The mirror is updated with the identical weight-update rule as the
// canonical store and discarded after a successful reconciliation so the
// next read refetches the canonical remote document instead of trusting
// a copy that may have diverged from other devices.
type Mirror struct {
	db *badger.DB
}

// NewMirror creates a mirror view over the shared offline database.
func NewMirror(q *Queue) *Mirror {
	return &Mirror{db: q.db}
}

// Get returns the mirror profile for userID, or ErrNoMirror.
func (m *Mirror) Get(_ context.Context, userID string) (*feed.UserProfile, error) {
	var p feed.UserProfile
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(mirrorKey(userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNoMirror
		}
		return nil, fmt.Errorf("get mirror profile: %w", err)
	}
	return &p, nil
}

// Put stores the mirror profile for its user.
func (m *Mirror) Put(_ context.Context, profile *feed.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal mirror profile: %w", err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(mirrorKey(profile.UserID), data)
	})
	if err != nil {
		return fmt.Errorf("put mirror profile: %w", err)
	}
	return nil
}

// Drop removes the mirror profile for userID. Dropping a missing mirror
// is not an error.
func (m *Mirror) Drop(_ context.Context, userID string) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(mirrorKey(userID))
	})
	if err != nil {
		return fmt.Errorf("drop mirror profile: %w", err)
	}
	return nil
}

func mirrorKey(userID string) []byte {
	return []byte(prefixMirror + userID)
}
