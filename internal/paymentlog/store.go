// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

// Package paymentlog records every payment notification received from the
// gateway. The log is append-only: entries are never updated or deleted, and
// duplicate deliveries produce duplicate entries.
package paymentlog

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/donationledger/internal/models"
)

// ErrInvalidEntry is returned for entries missing an order reference.
var ErrInvalidEntry = errors.New("payment log entry requires an order reference")

// Store defines payment log persistence.
type Store interface {
	// Append persists one entry.
	Append(ctx context.Context, entry *models.PaymentLog) error

	// ListByDonation returns a donation's entries, oldest first.
	ListByDonation(ctx context.Context, donationID int64) ([]models.PaymentLog, error)

	// TransactionIDs returns the gateway transaction ids seen for a donation,
	// in arrival order, duplicates included.
	TransactionIDs(ctx context.Context, donationID int64) ([]string, error)

	// CountByOrderReference returns how many entries reference an order.
	CountByOrderReference(ctx context.Context, orderRef string) (int, error)
}

// NewEntry builds an entry with a fresh id and receive time.
func NewEntry(donationID *int64, orderRef, transactionID string, raw []byte, authenticated bool) *models.PaymentLog {
	payload := make(json.RawMessage, len(raw))
	copy(payload, raw)
	return &models.PaymentLog{
		ID:             uuid.NewString(),
		DonationID:     donationID,
		OrderReference: orderRef,
		TransactionID:  transactionID,
		RawPayload:     payload,
		Authenticated:  authenticated,
		ReceivedAt:     time.Now().UTC(),
	}
}

// MemoryStore implements Store in memory. Data is lost on restart.
type MemoryStore struct {
	entries []models.PaymentLog
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make([]models.PaymentLog, 0, 64)}
}

// Append stores a copy of entry.
func (s *MemoryStore) Append(_ context.Context, entry *models.PaymentLog) error {
	if entry == nil || entry.OrderReference == "" {
		return ErrInvalidEntry
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := *entry
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now().UTC()
	}
	s.entries = append(s.entries, e)
	return nil
}

// ListByDonation returns a donation's entries, oldest first.
func (s *MemoryStore) ListByDonation(_ context.Context, donationID int64) ([]models.PaymentLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]models.PaymentLog, 0)
	for i := range s.entries {
		if id := s.entries[i].DonationID; id != nil && *id == donationID {
			results = append(results, s.entries[i])
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ReceivedAt.Before(results[j].ReceivedAt)
	})
	return results, nil
}

// TransactionIDs returns transaction ids for a donation in arrival order.
func (s *MemoryStore) TransactionIDs(ctx context.Context, donationID int64) ([]string, error) {
	entries, err := s.ListByDonation(ctx, donationID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for i := range entries {
		ids = append(ids, entries[i].TransactionID)
	}
	return ids, nil
}

// CountByOrderReference counts entries for an order reference.
func (s *MemoryStore) CountByOrderReference(_ context.Context, orderRef string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for i := range s.entries {
		if s.entries[i].OrderReference == orderRef {
			n++
		}
	}
	return n, nil
}

// Len returns the total number of entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
