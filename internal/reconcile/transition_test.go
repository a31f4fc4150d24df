// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package reconcile

import (
	"testing"

	"github.com/tomtom215/donationledger/internal/models"
)

func TestTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		txStatus    string
		fraud       string
		paymentType string
		wantApply   bool
		wantStatus  models.DonationStatus
		wantMethod  string
	}{
		{"capture", "accept", "credit_card", true, models.StatusSuccess, "credit_card"},
		{"capture", "challenge", "credit_card", false, "", ""},
		{"capture", "", "credit_card", false, "", ""},
		{"settlement", "", "bank_transfer", true, models.StatusSuccess, "bank_transfer"},
		{"settlement", "", "", true, models.StatusSuccess, ""},
		{"cancel", "", "credit_card", true, models.StatusCancelled, ""},
		{"deny", "", "", true, models.StatusCancelled, ""},
		{"expire", "", "", true, models.StatusCancelled, ""},
		{"pending", "", "gopay", true, models.StatusPending, ""},
		{"refunded", "", "", true, models.StatusRefund, ""},
		{"authorize", "", "", false, "", ""},
		{"partial_refund", "", "", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.txStatus+"/"+tt.fraud, func(t *testing.T) {
			t.Parallel()
			d := Transition(&Notification{TransactionStatus: tt.txStatus, FraudStatus: tt.fraud, PaymentType: tt.paymentType})
			if d.Apply != tt.wantApply {
				t.Fatalf("Apply = %v, want %v", d.Apply, tt.wantApply)
			}
			if d.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", d.Status, tt.wantStatus)
			}
			gotMethod := ""
			if d.PaymentMethod != nil {
				gotMethod = *d.PaymentMethod
			}
			if gotMethod != tt.wantMethod {
				t.Errorf("PaymentMethod = %q, want %q", gotMethod, tt.wantMethod)
			}
		})
	}
}
