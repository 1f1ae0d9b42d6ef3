// Headliner - Personalized News Feed Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/headliner

// Package offline provides the durable local interaction queue, the
// optimistic local mirror profile, and the reconciler that replays
// queued interactions against the canonical profile store when
// connectivity returns.
//
// Interactions recorded while the device is offline (or when a remote
// write fails) are appended to a BadgerDB-backed queue with fsync, then
// applied to a mirror profile so on-device ranking stays responsive
// without a network round trip. Records are removed from the queue only
// after their remote replay is confirmed.
package offline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/headliner/internal/feed"
	"github.com/tomtom215/headliner/internal/logging"
	"github.com/tomtom215/headliner/internal/metrics"
)

// ErrQueueClosed is returned from operations on a closed queue.
var ErrQueueClosed = errors.New("offline queue closed")

// Key prefixes inside the shared Badger database.
const (
	prefixQueue  = "queue:"
	prefixMirror = "mirror:"
)

// Config configures the offline store.
type Config struct {
	// Path is the BadgerDB directory.
	Path string `koanf:"path"`

	// SyncWrites forces fsync on every append. Queued interactions are
	// the only copy of the user's signal while offline, so this defaults
	// to true.
	SyncWrites bool `koanf:"sync_writes"`

	// InMemory runs Badger without persistence. Tests only.
	InMemory bool `koanf:"in_memory"`
}

// DefaultConfig returns the default offline store configuration.
func DefaultConfig() Config {
	return Config{
		Path:       "/data/headliner/offline",
		SyncWrites: true,
	}
}

// Entry is one stored queue record.
type Entry struct {
	// ID is the unique entry identifier.
	ID string `json:"id"`

	// Record is the queued interaction.
	Record feed.OfflineInteraction `json:"record"`

	// CreatedAt is when the entry was appended.
	CreatedAt time.Time `json:"created_at"`

	// Attempts counts replay attempts.
	Attempts int `json:"attempts"`

	// LastError is the error message from the last failed replay.
	LastError string `json:"last_error,omitempty"`
}

// Stats contains queue counters for monitoring.
type Stats struct {
	// PendingCount is the number of queued records.
	PendingCount int64 `json:"pending_count"`

	// TotalAppends is the number of Append operations since open.
	TotalAppends int64 `json:"total_appends"`

	// TotalConfirms is the number of Confirm operations since open.
	TotalConfirms int64 `json:"total_confirms"`
}

// Queue is the durable offline interaction log. It is append-only and
// single-consumer: the Reconciler is the only component that drains it.
// Safe for concurrent use.
type Queue struct {
	db *badger.DB

	totalAppends  atomic.Int64
	totalConfirms atomic.Int64
	closed        atomic.Bool
}

// Open opens (or creates) the offline store at the configured path.
func Open(cfg Config) (*Queue, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("offline store path required")
		}
		opts = badger.DefaultOptions(cfg.Path)
		opts.SyncWrites = cfg.SyncWrites
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open offline store: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("sync_writes", cfg.SyncWrites).
		Msg("offline store opened")

	return &Queue{db: db}, nil
}

// Append durably records one offline interaction.
// The key embeds the interaction timestamp so a prefix scan returns
// records in original interaction order.
func (q *Queue) Append(_ context.Context, rec feed.OfflineInteraction) (string, error) {
	if q.closed.Load() {
		return "", ErrQueueClosed
	}
	if rec.UserID == "" {
		return "", errors.New("offline record missing user id")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	id := uuid.New().String()
	entry := Entry{
		ID:        id,
		Record:    rec,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(&entry)
	if err != nil {
		return "", fmt.Errorf("marshal queue entry: %w", err)
	}

	key := queueKey(rec.UserID, rec.Timestamp, id)
	err = q.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return "", fmt.Errorf("append offline record: %w", err)
	}

	q.totalAppends.Add(1)
	metrics.QueueAppends.Inc()
	metrics.QueueDepth.Inc()
	return id, nil
}

// Pending returns all queued entries for userID in interaction order.
func (q *Queue) Pending(_ context.Context, userID string) ([]Entry, error) {
	if q.closed.Load() {
		return nil, ErrQueueClosed
	}

	var entries []Entry
	err := q.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixQueue + userID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var entry Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return fmt.Errorf("decode queue entry: %w", err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Confirm removes a replayed entry from the queue. Safe to call for an
// already-removed entry.
func (q *Queue) Confirm(_ context.Context, entry *Entry) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}

	key := queueKey(entry.Record.UserID, entry.Record.Timestamp, entry.ID)
	err := q.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("confirm queue entry: %w", err)
	}

	q.totalConfirms.Add(1)
	metrics.QueueDepth.Dec()
	return nil
}

// MarkAttempt records a failed replay attempt on the stored entry so the
// failure survives restarts and is visible in queue inspection.
func (q *Queue) MarkAttempt(_ context.Context, entry *Entry, replayErr error) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}

	entry.Attempts++
	if replayErr != nil {
		entry.LastError = replayErr.Error()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal queue entry: %w", err)
	}

	key := queueKey(entry.Record.UserID, entry.Record.Timestamp, entry.ID)
	return q.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// Users returns the distinct user IDs with queued records, in key order.
// The reconciler uses this to drain every user's queue on a connectivity
// signal.
func (q *Queue) Users(_ context.Context) ([]string, error) {
	if q.closed.Load() {
		return nil, ErrQueueClosed
	}

	var users []string
	seen := make(map[string]bool)
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixQueue)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			rest := key[len(prefixQueue):]
			for i := 0; i < len(rest); i++ {
				if rest[i] == ':' {
					if user := rest[:i]; !seen[user] {
						seen[user] = true
						users = append(users, user)
					}
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// PendingCount returns the number of queued records across all users.
func (q *Queue) PendingCount() (int64, error) {
	if q.closed.Load() {
		return 0, ErrQueueClosed
	}

	var count int64
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixQueue)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Stats returns queue counters.
func (q *Queue) Stats() Stats {
	pending, _ := q.PendingCount()
	return Stats{
		PendingCount:  pending,
		TotalAppends:  q.totalAppends.Load(),
		TotalConfirms: q.totalConfirms.Load(),
	}
}

// Close shuts down the underlying database.
func (q *Queue) Close() error {
	if !q.closed.CompareAndSwap(false, true) {
		return nil
	}
	return q.db.Close()
}

// queueKey builds the ordered storage key for one record. The timestamp
// is zero-padded so lexicographic key order matches interaction order;
// the entry ID breaks ties between same-nanosecond records.
func queueKey(userID string, ts time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%s", prefixQueue, userID, ts.UnixNano(), id))
}
