// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package reconcile

import "github.com/tomtom215/donationledger/internal/models"

// Processor transaction_status values.
const (
	txCapture    = "capture"
	txSettlement = "settlement"
	txCancel     = "cancel"
	txDeny       = "deny"
	txExpire     = "expire"
	txPending    = "pending"
	txRefunded   = "refunded"

	fraudAccept = "accept"
)

// Decision is the result of mapping a notification to a donation status.
type Decision struct {
	Apply         bool
	Status        models.DonationStatus
	PaymentMethod *string
}

// Transition maps a notification to the status it sets. It does not look at
// the donation's current status: the latest authenticated notification wins.
func Transition(n *Notification) Decision {
	switch n.TransactionStatus {
	case txCapture:
		if n.FraudStatus == fraudAccept {
			return Decision{Apply: true, Status: models.StatusSuccess, PaymentMethod: paymentMethod(n)}
		}
		return Decision{}
	case txSettlement:
		return Decision{Apply: true, Status: models.StatusSuccess, PaymentMethod: paymentMethod(n)}
	case txCancel, txDeny, txExpire:
		return Decision{Apply: true, Status: models.StatusCancelled}
	case txPending:
		return Decision{Apply: true, Status: models.StatusPending}
	case txRefunded:
		return Decision{Apply: true, Status: models.StatusRefund}
	default:
		return Decision{}
	}
}

func paymentMethod(n *Notification) *string {
	if n.PaymentType == "" {
		return nil
	}
	pt := n.PaymentType
	return &pt
}
