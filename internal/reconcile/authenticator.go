// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package reconcile

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Authenticator verifies that a notification was produced by the payment
// processor. The signature is SHA-512 over order_id, status_code,
// gross_amount and the server key, concatenated verbatim.
type Authenticator struct {
	serverKey string
}

// NewAuthenticator creates an Authenticator for the shared server key.
func NewAuthenticator(serverKey string) *Authenticator {
	return &Authenticator{serverKey: serverKey}
}

// Signature returns the lowercase hex signature for the given fields.
func (a *Authenticator) Signature(orderID, statusCode, grossAmount string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + a.serverKey))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether the notification's signature_key matches. The
// comparison is constant-time and ignores hex letter case.
func (a *Authenticator) Verify(n *Notification) bool {
	if a.serverKey == "" || n == nil || n.SignatureKey == "" {
		return false
	}
	supplied, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(n.SignatureKey)))
	if err != nil || len(supplied) != sha512.Size {
		return false
	}
	expected := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + a.serverKey))
	return subtle.ConstantTimeCompare(supplied, expected[:]) == 1
}
