// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/donationledger/internal/auth"
	"github.com/tomtom215/donationledger/internal/authz"
	"github.com/tomtom215/donationledger/internal/database"
	"github.com/tomtom215/donationledger/internal/gateway"
	"github.com/tomtom215/donationledger/internal/logging"
	"github.com/tomtom215/donationledger/internal/metrics"
	"github.com/tomtom215/donationledger/internal/models"
	"github.com/tomtom215/donationledger/internal/validation"
)

// DonationSessionResponse is returned when a gateway session is issued.
type DonationSessionResponse struct {
	Donation       *models.Donation `json:"donation"`
	OrderReference string           `json:"order_reference"`
	SessionToken   string           `json:"session_token"`
	RedirectURL    string           `json:"redirect_url"`
}

// DonationDetail is a donation with its processor transaction ids.
type DonationDetail struct {
	*models.Donation
	TransactionIDs []string `json:"transaction_ids"`
}

// gatewayFailureDetails accompanies GATEWAY_SESSION_ERROR so clients can
// retry against the stored donation.
type gatewayFailureDetails struct {
	Donation  *models.Donation `json:"donation"`
	Retryable bool             `json:"retryable"`
}

func newSessionResponse(d *models.Donation, s *models.GatewaySession) DonationSessionResponse {
	return DonationSessionResponse{
		Donation:       d,
		OrderReference: d.OrderReference,
		SessionToken:   s.Token,
		RedirectURL:    s.RedirectURL,
	}
}

// CreateDonation handles POST /api/v1/donations.
//
// The record is stored as Pending before the gateway is called, so a gateway
// failure leaves a retryable donation behind (502 with the donation in
// details).
func (h *Handler) CreateDonation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CreateDonationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.ValidationError("Invalid request body", nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	var userID *int64
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		if id, err := claims.AccountID(); err == nil {
			userID = &id
		}
	}

	donation, err := h.store.CreateDonation(r.Context(), req.ToNewDonation(userID))
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	metrics.RecordDonationCreated(donation.IsAnonymous)

	logging.Ctx(r.Context()).Info().
		Int64("donation_id", donation.ID).
		Str("order_ref", donation.OrderReference).
		Bool("anonymous", donation.IsAnonymous).
		Msg("Donation created")

	session, ok := h.issueSession(rw, r, donation)
	if !ok {
		return
	}
	rw.Created(newSessionResponse(donation, session))
}

// RetrySession handles POST /api/v1/donations/{id}/session. A stored session
// is returned as is; otherwise a new one is requested with the same order
// reference.
func (h *Handler) RetrySession(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := parseIDParam(r, "id")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	donation, err := h.store.GetDonation(r.Context(), id)
	if errors.Is(err, database.ErrDonationNotFound) {
		rw.NotFound("Donation not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	if donation.Status != models.StatusPending {
		rw.Conflict("Donation is no longer pending")
		return
	}
	if donation.HasSession() {
		rw.Success(newSessionResponse(donation, &models.GatewaySession{
			Token:       *donation.SessionToken,
			RedirectURL: deref(donation.RedirectURL),
		}))
		return
	}

	session, ok := h.issueSession(rw, r, donation)
	if !ok {
		return
	}
	rw.Success(newSessionResponse(donation, session))
}

// issueSession requests a gateway session and stores it on the donation. On
// failure it writes the response and returns false.
func (h *Handler) issueSession(rw *ResponseWriter, r *http.Request, donation *models.Donation) (*models.GatewaySession, bool) {
	log := logging.Ctx(r.Context())

	session, err := h.sessions.CreateSession(r.Context(), gateway.SessionRequestFor(donation))
	if err != nil {
		retryable := true
		var gwErr *gateway.GatewaySessionError
		if errors.As(err, &gwErr) {
			retryable = gwErr.Retryable()
		}
		log.Error().Err(err).Str("order_ref", donation.OrderReference).Msg("Gateway session request failed")
		rw.ErrorWithDetails(http.StatusBadGateway, ErrCodeGatewaySessionError,
			"Payment gateway session could not be created",
			gatewayFailureDetails{Donation: donation, Retryable: retryable})
		return nil, false
	}

	if err := h.store.SetGatewaySession(r.Context(), donation.ID, *session); err != nil {
		// The gateway already holds the session; the donor can still pay.
		log.Warn().Err(err).Str("order_ref", donation.OrderReference).Msg("Failed to store gateway session")
	}
	return session, true
}

// ListDonations handles GET /api/v1/donations (staff only).
func (h *Handler) ListDonations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	filter, err := parseDonationFilter(r, &h.config.API)
	if err != nil {
		rw.ValidationError(err.Error(), map[string]any{"field": "status"})
		return
	}

	donations, total, err := h.store.ListDonations(r.Context(), filter)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.SuccessWithPagination(donations, NewPaginationMeta(total, filter.Page, filter.Limit))
}

// MyDonations handles GET /api/v1/donations/mine.
func (h *Handler) MyDonations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	accountID, ok := accountFromRequest(rw, r)
	if !ok {
		return
	}

	donations, err := h.store.ListDonationsByUser(r.Context(), accountID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(donations)
}

// GetDonation handles GET /api/v1/donations/{id}. Staff may read any
// donation; other accounts only their own.
func (h *Handler) GetDonation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		rw.Error(http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return
	}
	id, err := parseIDParam(r, "id")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	donation, err := h.store.GetDonation(r.Context(), id)
	if errors.Is(err, database.ErrDonationNotFound) {
		rw.NotFound("Donation not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	allowed, err := h.canRead(claims, donation)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization check failed")
		rw.InternalError("Authorization check failed")
		return
	}
	if !allowed {
		rw.Forbidden("Insufficient permissions")
		return
	}

	txnIDs, err := h.logs.TransactionIDs(r.Context(), donation.ID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if txnIDs == nil {
		txnIDs = []string{}
	}
	rw.Success(DonationDetail{Donation: donation, TransactionIDs: txnIDs})
}

func (h *Handler) canRead(claims *auth.Claims, d *models.Donation) (bool, error) {
	all, err := h.enforcer.Enforce(claims.Role, authz.ObjectDonations, authz.ActionRead)
	if err != nil || all {
		return all, err
	}

	accountID, err := claims.AccountID()
	if err != nil || d.UserID == nil || *d.UserID != accountID {
		return false, nil
	}
	return h.enforcer.Enforce(claims.Role, authz.ObjectOwnDonations, authz.ActionRead)
}

func accountFromRequest(rw *ResponseWriter, r *http.Request) (int64, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		rw.Error(http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return 0, false
	}
	id, err := claims.AccountID()
	if err != nil {
		rw.Error(http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid token subject")
		return 0, false
	}
	return id, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
