// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package gateway

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/donationledger/internal/models"
)

type stubCreator struct {
	calls int
	err   error
}

func (s *stubCreator) CreateSession(_ context.Context, req SessionRequest) (*models.GatewaySession, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.GatewaySession{Token: "tok", RedirectURL: "https://pay.example/tok"}, nil
}

func testRequest() SessionRequest {
	return SessionRequest{OrderReference: "donation-1-20260101000000", Amount: decimal.NewFromInt(1000)}
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	stub := &stubCreator{err: &GatewaySessionError{StatusCode: http.StatusServiceUnavailable, Err: errors.New("down")}}
	cb := NewCircuitBreakerClient(stub)

	for i := 0; i < 10; i++ {
		if _, err := cb.CreateSession(context.Background(), testRequest()); err == nil {
			t.Fatal("expected failure")
		}
	}
	if cb.State() != "open" {
		t.Fatalf("State() = %s, want open", cb.State())
	}

	_, err := cb.CreateSession(context.Background(), testRequest())
	var gwErr *GatewaySessionError
	if !errors.As(err, &gwErr) {
		t.Fatalf("open-circuit error = %v, want *GatewaySessionError", err)
	}
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("open-circuit error should wrap ErrOpenState: %v", err)
	}
	if stub.calls != 10 {
		t.Errorf("wrapped client called %d times, want 10", stub.calls)
	}
}

func TestCircuitBreakerIgnoresFinalClientErrors(t *testing.T) {
	stub := &stubCreator{err: &GatewaySessionError{StatusCode: http.StatusBadRequest, Err: errors.New("bad")}}
	cb := NewCircuitBreakerClient(stub)

	for i := 0; i < 12; i++ {
		_, _ = cb.CreateSession(context.Background(), testRequest())
	}
	if cb.State() != "closed" {
		t.Errorf("State() = %s, want closed", cb.State())
	}
}

func TestCircuitBreakerPassesSuccess(t *testing.T) {
	stub := &stubCreator{}
	cb := NewCircuitBreakerClient(stub)

	session, err := cb.CreateSession(context.Background(), testRequest())
	if err != nil || session.Token != "tok" {
		t.Fatalf("CreateSession() = %+v, %v", session, err)
	}
}
