// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package logging

import "strings"

// maxLogValueLength caps user-supplied strings written to the log.
const maxLogValueLength = 200

// SanitizeValue strips control characters (log injection) and truncates
// user-supplied values before they are logged.
func SanitizeValue(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if len(s) > maxLogValueLength {
		return s[:maxLogValueLength] + "...[truncated]"
	}
	return s
}
