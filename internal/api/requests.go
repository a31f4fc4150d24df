// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/donationledger/internal/config"
	"github.com/tomtom215/donationledger/internal/models"
	"github.com/tomtom215/donationledger/internal/validation"
)

const maxRequestBodyBytes = 64 * 1024

// CreateDonationRequest is the body of POST /donations.
type CreateDonationRequest struct {
	Name        *string         `json:"name" validate:"omitempty,min=3,max=30"`
	Email       *string         `json:"email" validate:"omitempty,email,max=254"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0,lt=10000000000000"`
	Message     *string         `json:"message" validate:"omitempty,max=150"`
	IsAnonymous *bool           `json:"is_anonymous" validate:"required"`
}

func init() {
	validation.RegisterStructValidation(validateCreateDonation, CreateDonationRequest{})
}

// validateCreateDonation requires contact details from named donors and
// caps amounts at two decimal places.
func validateCreateDonation(sl validator.StructLevel) {
	req := sl.Current().Interface().(CreateDonationRequest)

	if req.IsAnonymous != nil && !*req.IsAnonymous {
		if isBlank(req.Name) {
			sl.ReportError(req.Name, "name", "Name", "required", "")
		}
		if isBlank(req.Email) {
			sl.ReportError(req.Email, "email", "Email", "required", "")
		}
	}
	if !req.Amount.Equal(req.Amount.Truncate(2)) {
		sl.ReportError(req.Amount, "amount", "Amount", "max_decimals", "2")
	}
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// ToNewDonation converts a validated request.
func (req *CreateDonationRequest) ToNewDonation(userID *int64) models.NewDonation {
	nd := models.NewDonation{
		UserID:      userID,
		Name:        trimmed(req.Name),
		Email:       trimmed(req.Email),
		Amount:      req.Amount,
		Message:     req.Message,
		IsAnonymous: req.IsAnonymous != nil && *req.IsAnonymous,
	}
	nd.Normalize()
	return nd
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// decodeJSON decodes a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return errors.New("request body is empty")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// parseIDParam reads a positive integer path parameter.
func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}

// parseDonationFilter reads the listing query. Unknown sorts fall back to
// recent, pages below 1 become 1, and page sizes outside the allow list
// fall back to the default.
func parseDonationFilter(r *http.Request, cfg *config.APIConfig) (models.DonationFilter, error) {
	q := r.URL.Query()
	filter := models.DonationFilter{
		Search: strings.TrimSpace(q.Get("search")),
		Sort:   models.ParseDonationSort(q.Get("sort")),
		Page:   1,
		Limit:  cfg.DefaultPageSize,
	}

	if raw := q.Get("status"); raw != "" {
		status, err := models.ParseDonationStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 1 {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && cfg.IsPageSizeAllowed(limit) {
		filter.Limit = limit
	}
	if runes := []rune(filter.Search); len(runes) > 100 {
		filter.Search = string(runes[:100])
	}
	return filter, nil
}
