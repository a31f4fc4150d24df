// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package reconcile

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// ErrMalformedNotification is returned for bodies that are not JSON or lack
// a required field.
var ErrMalformedNotification = errors.New("malformed payment notification")

// Notification is the parsed view of a processor callback. Raw holds the
// body exactly as received.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
	TransactionID     string `json:"transaction_id"`

	Raw json.RawMessage `json:"-"`
}

// scalarText holds a JSON string or number. Numbers keep their literal
// text, so 10000.00 stays "10000.00" for the signature digest.
type scalarText string

func (s *scalarText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = scalarText(v)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = scalarText(num)
	return nil
}

type notificationWire struct {
	OrderID           string     `json:"order_id"`
	StatusCode        scalarText `json:"status_code"`
	GrossAmount       scalarText `json:"gross_amount"`
	SignatureKey      string     `json:"signature_key"`
	TransactionStatus string     `json:"transaction_status"`
	FraudStatus       string     `json:"fraud_status"`
	PaymentType       string     `json:"payment_type"`
	TransactionID     string     `json:"transaction_id"`
}

// ParseNotification decodes a callback body. status_code and gross_amount
// may arrive as JSON strings or numbers.
func ParseNotification(body []byte) (*Notification, error) {
	var w notificationWire
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedNotification, err)
	}
	n := Notification{
		OrderID:           w.OrderID,
		StatusCode:        string(w.StatusCode),
		GrossAmount:       string(w.GrossAmount),
		SignatureKey:      w.SignatureKey,
		TransactionStatus: w.TransactionStatus,
		FraudStatus:       w.FraudStatus,
		PaymentType:       w.PaymentType,
		TransactionID:     w.TransactionID,
	}

	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"order_id", n.OrderID},
		{"status_code", n.StatusCode},
		{"gross_amount", n.GrossAmount},
		{"signature_key", n.SignatureKey},
		{"transaction_status", n.TransactionStatus},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedNotification, strings.Join(missing, ", "))
	}

	n.Raw = make(json.RawMessage, len(body))
	copy(n.Raw, body)
	return &n, nil
}
