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

	"github.com/tomtom215/donationledger/internal/database/query"
	"github.com/tomtom215/donationledger/internal/models"
)

// amount is read back as VARCHAR so decimal.Decimal can scan it losslessly.
const donationColumns = `id, order_ref, user_id, name, email, CAST(amount AS VARCHAR), message,
	is_anonymous, status, payment_method, session_token, redirect_url, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonation(row rowScanner) (*models.Donation, error) {
	var (
		d                                             models.Donation
		userID                                        sql.NullInt64
		name, email, message, method, token, redirect sql.NullString
		status                                        string
	)
	err := row.Scan(&d.ID, &d.OrderReference, &userID, &name, &email, &d.Amount, &message,
		&d.IsAnonymous, &status, &method, &token, &redirect, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Status = models.DonationStatus(status)
	if userID.Valid {
		d.UserID = &userID.Int64
	}
	d.Name = stringPtr(name)
	d.Email = stringPtr(email)
	d.Message = stringPtr(message)
	d.PaymentMethod = stringPtr(method)
	d.SessionToken = stringPtr(token)
	d.RedirectURL = stringPtr(redirect)
	return &d, nil
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

// CreateDonation inserts a Pending donation and assigns its order reference.
func (db *DB) CreateDonation(ctx context.Context, in models.NewDonation) (*models.Donation, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("donation amount must be positive, got %s", in.Amount)
	}
	in.Normalize()

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var id int64
	if err := db.conn.QueryRowContext(ctx, `SELECT nextval('donations_id_seq')`).Scan(&id); err != nil {
		return nil, fmt.Errorf("allocate donation id: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	ref := models.OrderReference(id, now)

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO donations (id, order_ref, user_id, name, email, amount, message,
			is_anonymous, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, CAST(? AS DECIMAL(15,2)), ?, ?, ?, ?, ?)`,
		id, ref, nullInt64(in.UserID), nullString(in.Name), nullString(in.Email),
		in.Amount.StringFixed(2), nullString(in.Message), in.IsAnonymous,
		string(models.StatusPending), now, now)
	if err != nil {
		return nil, fmt.Errorf("insert donation: %w", err)
	}

	return db.GetDonation(ctx, id)
}

// GetDonation returns the donation with the given id.
func (db *DB) GetDonation(ctx context.Context, id int64) (*models.Donation, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, `SELECT `+donationColumns+` FROM donations WHERE id = ?`, id)
	d, err := scanDonation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDonationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get donation %d: %w", id, err)
	}
	return d, nil
}

// GetDonationByOrderReference returns the donation with the given order
// reference.
func (db *DB) GetDonationByOrderReference(ctx context.Context, ref string) (*models.Donation, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, `SELECT `+donationColumns+` FROM donations WHERE order_ref = ?`, ref)
	d, err := scanDonation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDonationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get donation %q: %w", ref, err)
	}
	return d, nil
}

// ListDonations returns one page of donations matching the filter and the
// total number of matches.
func (db *DB) ListDonations(ctx context.Context, filter models.DonationFilter) ([]models.Donation, int, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	wb := query.NewWhereBuilder()
	if filter.Status != nil {
		wb.AddEquals("status", string(*filter.Status))
	}
	wb.AddSearch(filter.Search, "name", "email", "order_ref")
	where, args := wb.BuildWithPrefix()

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM donations `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count donations: %w", err)
	}

	orderBy := "created_at DESC, id DESC"
	if filter.Sort == models.SortName {
		orderBy = "name ASC NULLS LAST, id DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 30
	}
	pageArgs := append(append([]any{}, args...), limit, filter.Offset())

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+donationColumns+` FROM donations `+where+` ORDER BY `+orderBy+` LIMIT ? OFFSET ?`,
		pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list donations: %w", err)
	}
	defer closeWithLog(rows, "rows")

	donations, err := collectDonations(rows)
	if err != nil {
		return nil, 0, err
	}
	return donations, total, nil
}

// ListDonationsByUser returns an account's donations, newest first.
func (db *DB) ListDonationsByUser(ctx context.Context, userID int64) ([]models.Donation, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+donationColumns+` FROM donations WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list donations for user %d: %w", userID, err)
	}
	defer closeWithLog(rows, "rows")

	return collectDonations(rows)
}

func collectDonations(rows *sql.Rows) ([]models.Donation, error) {
	donations := make([]models.Donation, 0)
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		donations = append(donations, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donations: %w", err)
	}
	return donations, nil
}

// ApplyTransition sets the status of the donation with the given order
// reference in a single statement. A nil paymentMethod keeps the stored one.
// It reports false when no donation matched.
func (db *DB) ApplyTransition(ctx context.Context, orderRef string, status models.DonationStatus, paymentMethod *string) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("invalid donation status %q", status)
	}

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE donations
		SET status = ?, payment_method = COALESCE(CAST(? AS VARCHAR), payment_method), updated_at = ?
		WHERE order_ref = ?`,
		string(status), nullString(paymentMethod), time.Now().UTC(), orderRef)
	if err != nil {
		return false, fmt.Errorf("apply transition to %s: %w", orderRef, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("apply transition to %s: %w", orderRef, err)
	}
	return n > 0, nil
}

// SetGatewaySession stores the session issued for a donation.
func (db *DB) SetGatewaySession(ctx context.Context, id int64, session models.GatewaySession) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE donations SET session_token = ?, redirect_url = ?, updated_at = ? WHERE id = ?`,
		session.Token, session.RedirectURL, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("store gateway session for donation %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDonationNotFound
	}
	return nil
}

// CountByStatus returns the number of donations per status.
func (db *DB) CountByStatus(ctx context.Context) (map[models.DonationStatus]int, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT status, COUNT(*) FROM donations GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count donations by status: %w", err)
	}
	defer closeWithLog(rows, "rows")

	counts := make(map[models.DonationStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[models.DonationStatus(status)] = n
	}
	return counts, rows.Err()
}
