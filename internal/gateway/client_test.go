// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/donationledger/internal/config"
	"github.com/tomtom215/donationledger/internal/models"
)

const testServerKey = "SB-Mid-server-test"

type capturedRequest struct {
	TransactionDetails struct {
		OrderID     string          `json:"order_id"`
		GrossAmount json.RawMessage `json:"gross_amount"`
	} `json:"transaction_details"`
	CustomerDetails struct {
		FirstName string `json:"first_name"`
		Email     string `json:"email"`
	} `json:"customer_details"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(&config.GatewayConfig{
		ServerKey: testServerKey,
		BaseURL:   server.URL,
		Timeout:   2 * time.Second,
	})
}

func TestCreateSessionSuccess(t *testing.T) {
	t.Parallel()

	var got capturedRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/snap/v1/transactions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != testServerKey || pass != "" {
			t.Errorf("basic auth = %q/%q/%v", user, pass, ok)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"token":"tok-1","redirect_url":"https://pay.example/tok-1"}`))
	})

	session, err := client.CreateSession(context.Background(), SessionRequest{
		OrderReference: "donation-1-20260101000000",
		Amount:         decimal.NewFromInt(50000),
		Name:           "Budi",
		Email:          "budi@example.com",
	})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if session.Token != "tok-1" || session.RedirectURL != "https://pay.example/tok-1" {
		t.Errorf("session = %+v", session)
	}
	if got.TransactionDetails.OrderID != "donation-1-20260101000000" {
		t.Errorf("order_id = %q", got.TransactionDetails.OrderID)
	}
	if string(got.TransactionDetails.GrossAmount) != "50000" {
		t.Errorf("gross_amount = %s, want 50000", got.TransactionDetails.GrossAmount)
	}
	if got.CustomerDetails.FirstName != "Budi" || got.CustomerDetails.Email != "budi@example.com" {
		t.Errorf("customer_details = %+v", got.CustomerDetails)
	}
}

func TestCreateSessionAnonymousUsesPlaceholders(t *testing.T) {
	t.Parallel()

	var got capturedRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"token":"tok-2","redirect_url":"https://pay.example/tok-2"}`))
	})

	_, err := client.CreateSession(context.Background(), SessionRequest{
		OrderReference: "donation-2-20260101000000",
		Amount:         decimal.RequireFromString("12500.5"),
		Name:           "Real Name",
		Email:          "real@example.com",
		Anonymous:      true,
	})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if got.CustomerDetails.FirstName != AnonymousName || got.CustomerDetails.Email != AnonymousEmail {
		t.Errorf("anonymous request leaked details: %+v", got.CustomerDetails)
	}
	if string(got.TransactionDetails.GrossAmount) != "12500.50" {
		t.Errorf("gross_amount = %s, want 12500.50", got.TransactionDetails.GrossAmount)
	}
}

func TestCreateSessionGatewayRejects(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_messages":["transaction_details.gross_amount is required"]}`))
	})

	_, err := client.CreateSession(context.Background(), SessionRequest{
		OrderReference: "donation-3-20260101000000",
		Amount:         decimal.NewFromInt(1000),
	})

	var gwErr *GatewaySessionError
	if !errors.As(err, &gwErr) {
		t.Fatalf("error = %v, want *GatewaySessionError", err)
	}
	if gwErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d", gwErr.StatusCode)
	}
	if len(gwErr.Messages) != 1 {
		t.Errorf("Messages = %v", gwErr.Messages)
	}
	if gwErr.Retryable() {
		t.Error("400 should not be retryable")
	}
}

func TestCreateSessionServerErrorWithoutJSON(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := client.CreateSession(context.Background(), SessionRequest{
		OrderReference: "donation-4-20260101000000",
		Amount:         decimal.NewFromInt(1000),
	})
	var gwErr *GatewaySessionError
	if !errors.As(err, &gwErr) || gwErr.StatusCode != http.StatusBadGateway || !gwErr.Retryable() {
		t.Fatalf("error = %#v", err)
	}
}

func TestCreateSessionTransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(&config.GatewayConfig{ServerKey: testServerKey, BaseURL: url, Timeout: time.Second})
	_, err := client.CreateSession(context.Background(), SessionRequest{
		OrderReference: "donation-5-20260101000000",
		Amount:         decimal.NewFromInt(1000),
	})
	var gwErr *GatewaySessionError
	if !errors.As(err, &gwErr) || gwErr.StatusCode != 0 || !gwErr.Retryable() {
		t.Fatalf("error = %#v", err)
	}
}

func TestCreateSessionRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := client.CreateSession(context.Background(), SessionRequest{OrderReference: "donation-6-20260101000000"})
	var gwErr *GatewaySessionError
	if !errors.As(err, &gwErr) {
		t.Fatalf("error = %v", err)
	}
	if calls.Load() != 0 {
		t.Error("invalid request reached the gateway")
	}
}

func TestNewClientBaseURL(t *testing.T) {
	t.Parallel()

	if got := NewClient(&config.GatewayConfig{}).BaseURL(); got != SandboxBaseURL {
		t.Errorf("default base URL = %q", got)
	}
	if got := NewClient(&config.GatewayConfig{Production: true}).BaseURL(); got != ProductionBaseURL {
		t.Errorf("production base URL = %q", got)
	}
	if got := NewClient(&config.GatewayConfig{BaseURL: "http://localhost:9000/"}).BaseURL(); got != "http://localhost:9000" {
		t.Errorf("override base URL = %q", got)
	}
}

func TestSessionRequestFor(t *testing.T) {
	t.Parallel()

	name, email := "Sari", "sari@example.com"
	d := &models.Donation{
		OrderReference: "donation-7-20260101000000",
		Amount:         decimal.NewFromInt(7000),
		Name:           &name,
		Email:          &email,
	}
	req := SessionRequestFor(d)
	if req.Name != name || req.Email != email || req.OrderReference != d.OrderReference {
		t.Errorf("SessionRequestFor() = %+v", req)
	}
}

func TestGatewaySessionErrorRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   bool
	}{
		{0, true},
		{400, false},
		{401, false},
		{409, true},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tt := range tests {
		e := &GatewaySessionError{StatusCode: tt.status}
		if got := e.Retryable(); got != tt.want {
			t.Errorf("Retryable(status=%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
