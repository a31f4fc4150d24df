// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/donationledger/internal/models"
)

// CreateAccount inserts an account and returns it with its assigned id.
func (db *DB) CreateAccount(ctx context.Context, a models.Account) (*models.Account, error) {
	if a.Role == "" {
		a.Role = models.RoleCommon
	}
	if !a.Role.Valid() {
		return nil, fmt.Errorf("invalid role %q", a.Role)
	}

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	a.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO accounts (username, name, email, role, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		a.Username, a.Name, a.Email, string(a.Role), a.IsActive, a.CreatedAt).Scan(&a.ID)
	if err != nil {
		return nil, fmt.Errorf("insert account %q: %w", a.Username, err)
	}
	return &a, nil
}

// GetAccount returns the account with the given id.
func (db *DB) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var a models.Account
	var role string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, name, email, role, is_active, created_at FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.Username, &a.Name, &a.Email, &role, &a.IsActive, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account %d: %w", id, err)
	}
	a.Role = models.Role(role)
	return &a, nil
}

// DeleteAccount removes an account. Its donations stay and lose the link.
// It returns how many donations were detached.
func (db *DB) DeleteAccount(ctx context.Context, id int64) (int64, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete account: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE donations SET user_id = NULL WHERE user_id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("detach donations of account %d: %w", id, err)
	}
	detached, _ := res.RowsAffected()

	res, err = tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete account %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrAccountNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete account %d: %w", id, err)
	}
	return detached, nil
}
