// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package gateway

import (
	"fmt"
	"net/http"
	"strings"
)

// GatewaySessionError reports a failed session request. StatusCode is 0
// when no response was received.
type GatewaySessionError struct {
	OrderReference string
	StatusCode     int
	Messages       []string
	Err            error
}

func (e *GatewaySessionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "gateway session for %s", e.OrderReference)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if len(e.Messages) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Messages, "; "))
	}
	return b.String()
}

func (e *GatewaySessionError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the same request may succeed.
// Client errors other than 409 and 429 are final.
func (e *GatewaySessionError) Retryable() bool {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return e.StatusCode == http.StatusConflict || e.StatusCode == http.StatusTooManyRequests
	}
	return true
}
