// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var orderRefPattern = regexp.MustCompile(`^donation-\d+-\d{14}$`)

func TestOrderReference(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 7, 9, 5, 2, 0, time.UTC)
	ref := OrderReference(42, created)

	if ref != "donation-42-20260307090502" {
		t.Errorf("OrderReference() = %q", ref)
	}
	if !orderRefPattern.MatchString(ref) {
		t.Errorf("OrderReference() = %q does not match documented format", ref)
	}

	id, ts, err := ParseOrderReference(ref)
	if err != nil {
		t.Fatalf("ParseOrderReference() error = %v", err)
	}
	if id != 42 || !ts.Equal(created) {
		t.Errorf("ParseOrderReference() = (%d, %v)", id, ts)
	}
}

func TestOrderReferenceUsesUTC(t *testing.T) {
	t.Parallel()

	jakarta := time.FixedZone("WIB", 7*3600)
	created := time.Date(2026, 1, 1, 6, 0, 0, 0, jakarta)
	if got := OrderReference(1, created); got != "donation-1-20251231230000" {
		t.Errorf("OrderReference() = %q", got)
	}
}

func TestParseOrderReferenceRejectsMalformed(t *testing.T) {
	t.Parallel()

	for _, ref := range []string{
		"",
		"order-1-20260101000000",
		"donation-",
		"donation-abc-20260101000000",
		"donation-1-2026",
		"donation-0-20260101000000",
		"donation-1-20261301000000",
	} {
		if _, _, err := ParseOrderReference(ref); err == nil {
			t.Errorf("ParseOrderReference(%q) expected error", ref)
		}
	}
}

func TestParseDonationStatus(t *testing.T) {
	t.Parallel()

	got, err := ParseDonationStatus("success")
	if err != nil || got != StatusSuccess {
		t.Errorf("ParseDonationStatus(success) = %v, %v", got, err)
	}
	if _, err := ParseDonationStatus("paid"); err == nil {
		t.Error("expected error for unknown status")
	}
	if DonationStatus("Paid").Valid() {
		t.Error("Paid should not be valid")
	}
}

func TestNewDonationNormalize(t *testing.T) {
	t.Parallel()

	name, email, msg := "Budi", "budi@example.com", "  "
	n := NewDonation{
		Name:        &name,
		Email:       &email,
		Message:     &msg,
		Amount:      decimal.NewFromInt(50000),
		IsAnonymous: true,
	}
	n.Normalize()

	if n.Name != nil || n.Email != nil {
		t.Error("anonymous donation must not keep name/email")
	}
	if n.Message != nil {
		t.Error("blank message should be cleared")
	}
}

func TestDonationFilterOffset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		page, limit, want int
	}{
		{1, 30, 0},
		{2, 30, 30},
		{3, 50, 100},
		{0, 30, 0},
	}
	for _, tt := range tests {
		f := DonationFilter{Page: tt.page, Limit: tt.limit}
		if got := f.Offset(); got != tt.want {
			t.Errorf("Offset(page=%d, limit=%d) = %d, want %d", tt.page, tt.limit, got, tt.want)
		}
	}
}

func TestParseDonationSort(t *testing.T) {
	t.Parallel()

	if ParseDonationSort("NAME") != SortName {
		t.Error("expected name sort")
	}
	if ParseDonationSort("") != SortRecent || ParseDonationSort("amount") != SortRecent {
		t.Error("expected recent as default sort")
	}
}
