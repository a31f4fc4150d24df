// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package paymentlog

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
)

func setupDuckDBStore(t *testing.T) *DuckDBStore {
	t.Helper()

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory DuckDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := NewDuckDBStore(db)
	if err := store.CreateTable(context.Background()); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	return store
}

// storeContract runs the same behaviour checks against every Store.
func storeContract(t *testing.T, store Store) {
	ctx := context.Background()
	donationID := int64(7)
	ref := "donation-7-20260101000000"

	payload := []byte(`{"order_id":"donation-7-20260101000000","transaction_status":"pending"}`)
	for _, txn := range []string{"txn-1", "txn-1", "txn-2"} {
		if err := store.Append(ctx, NewEntry(&donationID, ref, txn, payload, true)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	// An entry for an unknown order carries no donation id.
	if err := store.Append(ctx, NewEntry(nil, "donation-99-20260101000000", "txn-x", payload, false)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	entries, err := store.ListByDonation(ctx, donationID)
	if err != nil {
		t.Fatalf("ListByDonation() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("ListByDonation() returned %d entries, want 3 (duplicates kept)", len(entries))
	}
	if string(entries[0].RawPayload) != string(payload) {
		t.Errorf("RawPayload = %s", entries[0].RawPayload)
	}
	if !entries[0].Authenticated {
		t.Error("Authenticated flag lost")
	}

	ids, err := store.TransactionIDs(ctx, donationID)
	if err != nil {
		t.Fatalf("TransactionIDs() error = %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("TransactionIDs() = %v", ids)
	}

	n, err := store.CountByOrderReference(ctx, ref)
	if err != nil || n != 3 {
		t.Errorf("CountByOrderReference() = %d, %v; want 3", n, err)
	}

	if err := store.Append(ctx, NewEntry(nil, "", "txn", nil, true)); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("Append(no ref) error = %v, want ErrInvalidEntry", err)
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()
	storeContract(t, store)

	if store.Len() != 4 {
		t.Errorf("Len() = %d, want 4", store.Len())
	}
}

func TestDuckDBStore(t *testing.T) {
	storeContract(t, setupDuckDBStore(t))
}

func TestNewEntryCopiesPayload(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"a":1}`)
	e := NewEntry(nil, "donation-1-20260101000000", "t", raw, true)
	raw[0] = 'X'

	if string(e.RawPayload) != `{"a":1}` {
		t.Errorf("payload aliased caller buffer: %s", e.RawPayload)
	}
	if e.ID == "" || e.ReceivedAt.IsZero() {
		t.Error("NewEntry should assign id and time")
	}
}
