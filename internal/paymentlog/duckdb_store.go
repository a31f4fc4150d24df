// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package paymentlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/donationledger/internal/logging"
	"github.com/tomtom215/donationledger/internal/models"
)

// DuckDBStore implements Store on the shared DuckDB connection.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore creates a DuckDB-backed store. Call CreateTable before use.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates the payment_logs table if it doesn't exist.
// raw_payload is VARCHAR since the json extension is not autoloaded.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS payment_logs (
			id VARCHAR PRIMARY KEY,
			donation_id BIGINT,
			order_ref VARCHAR NOT NULL,
			transaction_id VARCHAR NOT NULL,
			raw_payload VARCHAR NOT NULL,
			authenticated BOOLEAN NOT NULL,
			received_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_payment_logs_donation_id ON payment_logs(donation_id);
		CREATE INDEX IF NOT EXISTS idx_payment_logs_order_ref ON payment_logs(order_ref);
	`

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Append inserts one entry.
func (s *DuckDBStore) Append(ctx context.Context, entry *models.PaymentLog) error {
	if entry == nil || entry.OrderReference == "" {
		return ErrInvalidEntry
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.ReceivedAt.IsZero() {
		entry.ReceivedAt = time.Now().UTC()
	}

	var donationID any
	if entry.DonationID != nil {
		donationID = *entry.DonationID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_logs (id, donation_id, order_ref, transaction_id, raw_payload, authenticated, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, donationID, entry.OrderReference, entry.TransactionID,
		string(entry.RawPayload), entry.Authenticated, entry.ReceivedAt)
	if err != nil {
		return fmt.Errorf("failed to append payment log for %s: %w", entry.OrderReference, err)
	}

	logging.Debug().
		Str("order_ref", entry.OrderReference).
		Str("transaction_id", entry.TransactionID).
		Bool("authenticated", entry.Authenticated).
		Msg("Payment notification logged")
	return nil
}

// ListByDonation returns a donation's entries, oldest first.
func (s *DuckDBStore) ListByDonation(ctx context.Context, donationID int64) ([]models.PaymentLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, donation_id, order_ref, transaction_id, raw_payload, authenticated, received_at
		FROM payment_logs
		WHERE donation_id = ?
		ORDER BY received_at ASC, id ASC`, donationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment logs: %w", err)
	}
	defer rows.Close()

	results := make([]models.PaymentLog, 0)
	for rows.Next() {
		var (
			e     models.PaymentLog
			donID sql.NullInt64
			raw   string
		)
		if err := rows.Scan(&e.ID, &donID, &e.OrderReference, &e.TransactionID, &raw, &e.Authenticated, &e.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment log: %w", err)
		}
		if donID.Valid {
			e.DonationID = &donID.Int64
		}
		e.RawPayload = []byte(raw)
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment logs: %w", err)
	}
	return results, nil
}

// TransactionIDs returns transaction ids for a donation in arrival order.
func (s *DuckDBStore) TransactionIDs(ctx context.Context, donationID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id FROM payment_logs
		WHERE donation_id = ?
		ORDER BY received_at ASC, id ASC`, donationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan transaction id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountByOrderReference counts entries for an order reference.
func (s *DuckDBStore) CountByOrderReference(ctx context.Context, orderRef string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payment_logs WHERE order_ref = ?`, orderRef).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count payment logs: %w", err)
	}
	return n, nil
}
