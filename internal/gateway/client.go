// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

// Package gateway requests payment sessions from the Snap-style payment
// gateway. It never retries on its own; callers decide.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/tomtom215/donationledger/internal/config"
	"github.com/tomtom215/donationledger/internal/metrics"
	"github.com/tomtom215/donationledger/internal/models"
)

const (
	SandboxBaseURL    = "https://app.sandbox.midtrans.com"
	ProductionBaseURL = "https://app.midtrans.com"

	transactionsPath = "/snap/v1/transactions"

	// Placeholders sent in place of an anonymous donor's details.
	AnonymousName  = "Anonim"
	AnonymousEmail = "blank@gmail.com"

	maxErrorBodyBytes = 64 << 10
)

// SessionRequest describes the payment a session is opened for.
type SessionRequest struct {
	OrderReference string
	Amount         decimal.Decimal
	Name           string
	Email          string
	Anonymous      bool
}

// ApplyAnonymity replaces donor details with placeholders when the donation
// is anonymous.
func ApplyAnonymity(req SessionRequest) SessionRequest {
	if req.Anonymous {
		req.Name = AnonymousName
		req.Email = AnonymousEmail
	}
	return req
}

// SessionRequestFor builds the request for a stored donation.
func SessionRequestFor(d *models.Donation) SessionRequest {
	req := SessionRequest{
		OrderReference: d.OrderReference,
		Amount:         d.Amount,
		Anonymous:      d.IsAnonymous,
	}
	if d.Name != nil {
		req.Name = *d.Name
	}
	if d.Email != nil {
		req.Email = *d.Email
	}
	return req
}

// SessionCreator opens payment sessions.
type SessionCreator interface {
	CreateSession(ctx context.Context, req SessionRequest) (*models.GatewaySession, error)
}

// Client talks to the gateway's transactions endpoint.
type Client struct {
	baseURL    string
	serverKey  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Client from config.
func NewClient(cfg *config.GatewayConfig) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = SandboxBaseURL
		if cfg.Production {
			baseURL = ProductionBaseURL
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL:   baseURL,
		serverKey: cfg.ServerKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
	}
}

// BaseURL returns the endpoint root in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type transactionDetails struct {
	OrderID     string          `json:"order_id"`
	GrossAmount json.RawMessage `json:"gross_amount"`
}

type customerDetails struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
}

type sessionPayload struct {
	TransactionDetails transactionDetails `json:"transaction_details"`
	CustomerDetails    customerDetails    `json:"customer_details"`
}

type sessionResponse struct {
	Token         string   `json:"token"`
	RedirectURL   string   `json:"redirect_url"`
	ErrorMessages []string `json:"error_messages"`
}

// grossAmount renders whole amounts as integers and keeps two decimals
// otherwise.
func grossAmount(amount decimal.Decimal) json.RawMessage {
	if amount.Equal(amount.Truncate(0)) {
		return json.RawMessage(amount.Truncate(0).String())
	}
	return json.RawMessage(amount.StringFixed(2))
}

// CreateSession opens a payment session. Every failure is a
// *GatewaySessionError.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (*models.GatewaySession, error) {
	start := time.Now()
	session, err := c.createSession(ctx, req)
	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.RecordGatewaySession(result, time.Since(start))
	return session, err
}

func (c *Client) createSession(ctx context.Context, req SessionRequest) (*models.GatewaySession, error) {
	fail := func(status int, msgs []string, err error) error {
		return &GatewaySessionError{OrderReference: req.OrderReference, StatusCode: status, Messages: msgs, Err: err}
	}

	if req.OrderReference == "" {
		return nil, fail(0, nil, fmt.Errorf("order reference is required"))
	}
	if !req.Amount.IsPositive() {
		return nil, fail(0, nil, fmt.Errorf("amount must be positive"))
	}
	req = ApplyAnonymity(req)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fail(0, nil, fmt.Errorf("rate limit wait: %w", err))
		}
	}

	body, err := json.Marshal(sessionPayload{
		TransactionDetails: transactionDetails{OrderID: req.OrderReference, GrossAmount: grossAmount(req.Amount)},
		CustomerDetails:    customerDetails{FirstName: req.Name, Email: req.Email},
	})
	if err != nil {
		return nil, fail(0, nil, fmt.Errorf("encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transactionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fail(0, nil, fmt.Errorf("create request failed: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth(c.serverKey, "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fail(0, nil, fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return nil, fail(resp.StatusCode, nil, fmt.Errorf("read response: %w", err))
	}

	var parsed sessionResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fail(resp.StatusCode, parsed.ErrorMessages,
			fmt.Errorf("request failed with status %d", resp.StatusCode))
	}
	if decodeErr != nil {
		return nil, fail(resp.StatusCode, nil, fmt.Errorf("failed to decode response: %w", decodeErr))
	}
	if parsed.Token == "" {
		return nil, fail(resp.StatusCode, parsed.ErrorMessages, fmt.Errorf("response carried no session token"))
	}

	return &models.GatewaySession{Token: parsed.Token, RedirectURL: parsed.RedirectURL}, nil
}
