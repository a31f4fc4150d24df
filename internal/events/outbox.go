// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package events

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/donationledger/internal/logging"
	"github.com/tomtom215/donationledger/internal/metrics"
)

const prefixPending = "pending:"

var (
	// ErrOutboxClosed is returned after Close.
	ErrOutboxClosed = errors.New("outbox is closed")

	// ErrEntryNotFound is returned when confirming an unknown entry.
	ErrEntryNotFound = errors.New("outbox entry not found")
)

// OutboxEntry is an event persisted before it reached the broker.
type OutboxEntry struct {
	ID        string          `json:"id"`
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"last_error,omitempty"`
}

// OutboxConfig configures the badger store.
type OutboxConfig struct {
	Path       string
	InMemory   bool
	SyncWrites bool
}

// Outbox persists events until the broker confirms them, so a broker outage
// delays delivery instead of dropping it.
type Outbox struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// OpenOutbox opens (or creates) the outbox.
func OpenOutbox(cfg OutboxConfig) (*Outbox, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("outbox path is required")
		}
		opts = badger.DefaultOptions(cfg.Path)
		opts.SyncWrites = cfg.SyncWrites
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	o := &Outbox{db: db}
	if n, err := o.Len(); err == nil {
		metrics.OutboxPending.Set(float64(n))
	}
	logging.Info().Str("path", cfg.Path).Bool("in_memory", cfg.InMemory).Msg("Event outbox opened")
	return o, nil
}

func (o *Outbox) checkOpen() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return ErrOutboxClosed
	}
	return nil
}

// Write persists an event under id.
func (o *Outbox) Write(_ context.Context, id, topic string, payload []byte) error {
	if err := o.checkOpen(); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("outbox entry id is required")
	}

	data, err := json.Marshal(&OutboxEntry{
		ID:        id,
		Topic:     topic,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	err = o.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixPending+id), data)
	})
	if err != nil {
		return fmt.Errorf("write to BadgerDB: %w", err)
	}
	metrics.OutboxPending.Inc()
	return nil
}

// Confirm removes a delivered entry.
func (o *Outbox) Confirm(_ context.Context, id string) error {
	if err := o.checkOpen(); err != nil {
		return err
	}

	key := []byte(prefixPending + id)
	err := o.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrEntryNotFound
			}
			return fmt.Errorf("get pending entry: %w", err)
		}
		return txn.Delete(key)
	})
	if err != nil {
		return err
	}
	metrics.OutboxPending.Dec()
	return nil
}

// RecordAttempt stores a failed delivery attempt on the entry.
func (o *Outbox) RecordAttempt(_ context.Context, id string, attemptErr error) error {
	if err := o.checkOpen(); err != nil {
		return err
	}

	key := []byte(prefixPending + id)
	return o.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return fmt.Errorf("get pending entry: %w", err)
		}

		var entry OutboxEntry
		if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &entry) }); err != nil {
			return fmt.Errorf("unmarshal entry: %w", err)
		}
		entry.Attempts++
		if attemptErr != nil {
			entry.LastError = attemptErr.Error()
		}

		data, err := json.Marshal(&entry)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		return txn.Set(key, data)
	})
}

// Pending returns all unconfirmed entries, oldest first.
func (o *Outbox) Pending(ctx context.Context) ([]*OutboxEntry, error) {
	if err := o.checkOpen(); err != nil {
		return nil, err
	}

	var entries []*OutboxEntry
	err := o.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixPending)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			item := it.Item()
			var entry OutboxEntry
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &entry) }); err != nil {
				logging.Warn().Err(err).Str("key", string(item.Key())).Msg("Outbox failed to unmarshal entry")
				continue
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate pending entries: %w", err)
	}

	sortByCreated(entries)
	return entries, nil
}

// sortByCreated orders entries oldest first. Ties keep key order.
func sortByCreated(entries []*OutboxEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}

// Len returns the number of pending entries.
func (o *Outbox) Len() (int, error) {
	if err := o.checkOpen(); err != nil {
		return 0, err
	}
	n := 0
	err := o.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixPending)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Close closes the underlying store.
func (o *Outbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	return o.db.Close()
}
