// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

// Package events publishes donation status changes to a message broker for
// downstream consumers such as receipt mailers and dashboards. Publishing is
// best effort; the donation record stays the source of truth.
package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/donationledger/internal/models"
)

// TopicDonationStatus is the default subject for status-change events.
const TopicDonationStatus = "donations.status"

// DonationStatusChanged is emitted after a notification changes a donation's
// status.
type DonationStatusChanged struct {
	EventID        string                `json:"event_id"`
	DonationID     int64                 `json:"donation_id"`
	OrderReference string                `json:"order_reference"`
	PreviousStatus models.DonationStatus `json:"previous_status"`
	Status         models.DonationStatus `json:"status"`
	PaymentMethod  *string               `json:"payment_method,omitempty"`
	TransactionID  string                `json:"transaction_id,omitempty"`
	OccurredAt     time.Time             `json:"occurred_at"`
}

// Validate checks the fields consumers rely on.
func (e *DonationStatusChanged) Validate() error {
	var errs []error
	if e.EventID == "" {
		errs = append(errs, errors.New("event_id is required"))
	}
	if e.OrderReference == "" {
		errs = append(errs, errors.New("order_reference is required"))
	}
	if !e.Status.Valid() {
		errs = append(errs, fmt.Errorf("invalid status %q", e.Status))
	}
	return errors.Join(errs...)
}

// Marshal validates and encodes an event.
func Marshal(e *DonationStatusChanged) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	return json.Marshal(e)
}

// Unmarshal decodes and validates an event.
func Unmarshal(data []byte) (*DonationStatusChanged, error) {
	var e DonationStatusChanged
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	return &e, nil
}
