// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// donations.user_id has no FOREIGN KEY: DuckDB lacks ON DELETE SET NULL, so
// DeleteAccount detaches donations itself. Columns that are ever UPDATEd stay
// unindexed.
var tableQueries = []string{
	`CREATE SEQUENCE IF NOT EXISTS accounts_id_seq START 1`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id BIGINT PRIMARY KEY DEFAULT nextval('accounts_id_seq'),
		username VARCHAR NOT NULL UNIQUE,
		name VARCHAR NOT NULL,
		email VARCHAR NOT NULL,
		role VARCHAR NOT NULL DEFAULT 'Common',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE SEQUENCE IF NOT EXISTS donations_id_seq START 1`,
	`CREATE TABLE IF NOT EXISTS donations (
		id BIGINT PRIMARY KEY,
		order_ref VARCHAR NOT NULL UNIQUE,
		user_id BIGINT,
		name VARCHAR,
		email VARCHAR,
		amount DECIMAL(15,2) NOT NULL CHECK (amount > 0),
		message VARCHAR,
		is_anonymous BOOLEAN NOT NULL DEFAULT FALSE,
		status VARCHAR NOT NULL DEFAULT 'Pending',
		payment_method VARCHAR,
		session_token VARCHAR,
		redirect_url VARCHAR,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}

var indexQueries = []string{
	`CREATE INDEX IF NOT EXISTS idx_donations_created_at ON donations(created_at)`,
}

func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, q := range tableQueries {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, q := range indexQueries {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
