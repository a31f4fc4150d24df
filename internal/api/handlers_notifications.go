// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package api

import (
	"io"
	"net/http"

	"github.com/tomtom215/donationledger/internal/logging"
	"github.com/tomtom215/donationledger/internal/metrics"
	"github.com/tomtom215/donationledger/internal/reconcile"
)

const defaultNotificationBodyBytes = 1 << 20

// notificationAck is the fixed body the processor expects.
type notificationAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PaymentNotification handles POST /api/v1/notifications/payment.
//
// Everything except a storage failure is acknowledged with 200 so the
// processor stops redelivering; a 500 asks it to try again later.
func (h *Handler) PaymentNotification(w http.ResponseWriter, r *http.Request) {
	limit := h.config.Reconciliation.MaxBodyBytes
	if limit <= 0 {
		limit = defaultNotificationBodyBytes
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to read payment notification body")
		metrics.RecordNotification(string(reconcile.OutcomeMalformed))
		writeJSON(w, http.StatusOK, notificationAck{Success: true, Message: "OK"})
		return
	}

	outcome, err := h.engine.Process(r.Context(), body)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("outcome", string(outcome)).Msg("Payment notification processing failed")
		NewResponseWriter(w, r).Error(http.StatusInternalServerError, ErrCodeDatabaseError, "Notification could not be recorded")
		return
	}

	writeJSON(w, http.StatusOK, notificationAck{Success: true, Message: "OK"})
}
