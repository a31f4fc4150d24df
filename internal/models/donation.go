// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

// Package models defines the data structures shared by the store, the
// reconciliation engine and the HTTP API.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DonationStatus is the lifecycle state of a donation.
type DonationStatus string

const (
	StatusPending   DonationStatus = "Pending"
	StatusSuccess   DonationStatus = "Success"
	StatusCancelled DonationStatus = "Cancelled"
	StatusRefund    DonationStatus = "Refund"
)

// Valid reports whether s is a known status.
func (s DonationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusCancelled, StatusRefund:
		return true
	}
	return false
}

// ParseDonationStatus parses a status name case-insensitively.
func ParseDonationStatus(s string) (DonationStatus, error) {
	for _, st := range []DonationStatus{StatusPending, StatusSuccess, StatusCancelled, StatusRefund} {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown donation status %q", s)
}

// Donation is one donation attempt and its payment lifecycle.
//
// OrderReference and Amount are fixed at creation. Status and PaymentMethod
// are written only by payment reconciliation.
type Donation struct {
	ID             int64           `json:"id"`
	OrderReference string          `json:"order_reference"`
	UserID         *int64          `json:"user_id"`
	Name           *string         `json:"name"`
	Email          *string         `json:"email"`
	Amount         decimal.Decimal `json:"amount"`
	Message        *string         `json:"message"`
	IsAnonymous    bool            `json:"is_anonymous"`
	Status         DonationStatus  `json:"status"`
	PaymentMethod  *string         `json:"payment_method"`
	SessionToken   *string         `json:"-"`
	RedirectURL    *string         `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// HasSession reports whether a gateway session was already issued.
func (d *Donation) HasSession() bool {
	return d.SessionToken != nil && *d.SessionToken != ""
}

// NewDonation is the input for creating a donation.
type NewDonation struct {
	UserID      *int64
	Name        *string
	Email       *string
	Amount      decimal.Decimal
	Message     *string
	IsAnonymous bool
}

// Normalize clears contact fields of anonymous donations so they are never
// stored.
func (n *NewDonation) Normalize() {
	if n.IsAnonymous {
		n.Name = nil
		n.Email = nil
	}
	if n.Message != nil && strings.TrimSpace(*n.Message) == "" {
		n.Message = nil
	}
}

// DonationSort selects the listing order.
type DonationSort string

const (
	SortRecent DonationSort = "recent"
	SortName   DonationSort = "name"
)

// ParseDonationSort returns the sort for s, defaulting to SortRecent.
func ParseDonationSort(s string) DonationSort {
	if strings.EqualFold(s, string(SortName)) {
		return SortName
	}
	return SortRecent
}

// DonationFilter holds admin listing criteria.
type DonationFilter struct {
	Status *DonationStatus
	Search string
	Sort   DonationSort
	Page   int
	Limit  int
}

// Offset returns the row offset for the page.
func (f DonationFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// GatewaySession is a payment session issued by the gateway.
type GatewaySession struct {
	Token       string `json:"session_token"`
	RedirectURL string `json:"redirect_url"`
}

// OrderReferencePrefix prefixes every donation order reference.
const OrderReferencePrefix = "donation-"

const orderReferenceTimeLayout = "20060102150405"

// OrderReference builds "donation-<id>-<YYYYMMDDHHmmss>".
func OrderReference(id int64, createdAt time.Time) string {
	return OrderReferencePrefix + strconv.FormatInt(id, 10) + "-" + createdAt.UTC().Format(orderReferenceTimeLayout)
}

// ParseOrderReference splits a reference built by OrderReference.
func ParseOrderReference(ref string) (int64, time.Time, error) {
	rest, ok := strings.CutPrefix(ref, OrderReferencePrefix)
	if !ok {
		return 0, time.Time{}, fmt.Errorf("order reference %q: missing %q prefix", ref, OrderReferencePrefix)
	}
	idPart, tsPart, ok := strings.Cut(rest, "-")
	if !ok {
		return 0, time.Time{}, fmt.Errorf("order reference %q: missing timestamp", ref)
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, time.Time{}, fmt.Errorf("order reference %q: invalid id", ref)
	}
	if len(tsPart) != len(orderReferenceTimeLayout) {
		return 0, time.Time{}, fmt.Errorf("order reference %q: invalid timestamp", ref)
	}
	ts, err := time.Parse(orderReferenceTimeLayout, tsPart)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("order reference %q: %w", ref, err)
	}
	return id, ts, nil
}
