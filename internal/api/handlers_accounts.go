// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/donationledger/internal/database"
	"github.com/tomtom215/donationledger/internal/logging"
)

// AccountDeletedResponse reports a deletion.
type AccountDeletedResponse struct {
	AccountID         int64 `json:"account_id"`
	DetachedDonations int64 `json:"detached_donations"`
}

// DeleteAccount handles DELETE /api/v1/accounts/{id}. The account's
// donations are kept with user_id cleared.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := parseIDParam(r, "id")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	detached, err := h.store.DeleteAccount(r.Context(), id)
	if errors.Is(err, database.ErrAccountNotFound) {
		rw.NotFound("Account not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int64("account_id", id).
		Int64("detached_donations", detached).
		Msg("Account deleted")
	rw.Success(AccountDeletedResponse{AccountID: id, DetachedDonations: detached})
}
