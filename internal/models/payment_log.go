// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// PaymentLog is one received payment notification. Entries are append-only;
// a donation accumulates one entry per delivery, duplicates included.
type PaymentLog struct {
	ID             string          `json:"id"`
	DonationID     *int64          `json:"donation_id"`
	OrderReference string          `json:"order_reference"`
	TransactionID  string          `json:"transaction_id"`
	RawPayload     json.RawMessage `json:"raw_payload"`
	Authenticated  bool            `json:"authenticated"`
	ReceivedAt     time.Time       `json:"received_at"`
}
