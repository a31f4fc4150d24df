// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

// Package reconcile turns payment gateway notifications into donation state.
//
// Each delivery is parsed, its signature checked against the server key and
// appended to the payment log before the donation's status is updated. The
// gateway retries anything but a 200, so only storage failures surface as
// errors; every other outcome is acknowledged.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/donationledger/internal/database"
	"github.com/tomtom215/donationledger/internal/events"
	"github.com/tomtom215/donationledger/internal/logging"
	"github.com/tomtom215/donationledger/internal/metrics"
	"github.com/tomtom215/donationledger/internal/models"
	"github.com/tomtom215/donationledger/internal/paymentlog"
)

// Outcome classifies how a notification was handled.
type Outcome string

const (
	OutcomeApplied         Outcome = "applied"
	OutcomeNoTransition    Outcome = "no_transition"
	OutcomeUnknownOrder    Outcome = "unknown_order"
	OutcomeUnauthenticated Outcome = "unauthenticated"
	OutcomeMalformed       Outcome = "malformed"
	OutcomeIgnored         Outcome = "ignored"
	OutcomeFailed          Outcome = "failed"
)

// DonationStore is the part of the donation store the engine needs.
type DonationStore interface {
	GetDonationByOrderReference(ctx context.Context, ref string) (*models.Donation, error)
	ApplyTransition(ctx context.Context, ref string, status models.DonationStatus, paymentMethod *string) (bool, error)
}

// StatusPublisher receives applied status changes.
type StatusPublisher interface {
	PublishStatusChanged(ctx context.Context, evt *events.DonationStatusChanged) error
}

// Config controls engine policy.
type Config struct {
	// OrderPrefix selects the notifications this engine owns.
	OrderPrefix string
	// LogUnauthenticated appends failed-signature deliveries to the payment
	// log with authenticated=false. State never changes for them.
	LogUnauthenticated bool
}

// Engine applies payment notifications to donation records.
type Engine struct {
	donations DonationStore
	logs      paymentlog.Store
	auth      *Authenticator
	publisher StatusPublisher
	cfg       Config
}

// NewEngine creates an Engine. publisher may be nil.
func NewEngine(donations DonationStore, logs paymentlog.Store, auth *Authenticator, publisher StatusPublisher, cfg Config) *Engine {
	if cfg.OrderPrefix == "" {
		cfg.OrderPrefix = models.OrderReferencePrefix
	}
	return &Engine{
		donations: donations,
		logs:      logs,
		auth:      auth,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Process handles one notification body. Only storage failures produce an
// error; every other outcome is reported for acknowledgement.
func (e *Engine) Process(ctx context.Context, body []byte) (Outcome, error) {
	outcome, err := e.process(ctx, body)
	if err != nil {
		outcome = OutcomeFailed
	}
	metrics.RecordNotification(string(outcome))
	return outcome, err
}

func (e *Engine) process(ctx context.Context, body []byte) (Outcome, error) {
	log := logging.Ctx(ctx)

	n, err := ParseNotification(body)
	if err != nil {
		log.Warn().Err(err).Int("body_bytes", len(body)).Msg("Rejected malformed payment notification")
		return OutcomeMalformed, nil
	}

	orderRef := logging.SanitizeValue(n.OrderID)
	if !strings.HasPrefix(n.OrderID, e.cfg.OrderPrefix) {
		log.Debug().Str("order_ref", orderRef).Msg("Ignoring notification for non-donation order")
		return OutcomeIgnored, nil
	}

	if !e.auth.Verify(n) {
		log.Warn().
			Str("order_ref", orderRef).
			Str("transaction_status", logging.SanitizeValue(n.TransactionStatus)).
			Msg("Payment notification failed signature verification")
		if e.cfg.LogUnauthenticated {
			entry := paymentlog.NewEntry(nil, n.OrderID, n.TransactionID, n.Raw, false)
			if d, lookupErr := e.donations.GetDonationByOrderReference(ctx, n.OrderID); lookupErr == nil {
				entry.DonationID = &d.ID
			}
			if err := e.logs.Append(ctx, entry); err != nil {
				return OutcomeUnauthenticated, fmt.Errorf("log unauthenticated notification: %w", err)
			}
			metrics.RecordPaymentLogAppend(false)
		}
		return OutcomeUnauthenticated, nil
	}

	donation, err := e.donations.GetDonationByOrderReference(ctx, n.OrderID)
	if errors.Is(err, database.ErrDonationNotFound) {
		log.Warn().Str("order_ref", orderRef).Msg("Payment notification for unknown donation")
		return OutcomeUnknownOrder, nil
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("look up donation %s: %w", orderRef, err)
	}

	entry := paymentlog.NewEntry(&donation.ID, n.OrderID, n.TransactionID, n.Raw, true)
	if err := e.logs.Append(ctx, entry); err != nil {
		return OutcomeFailed, fmt.Errorf("append payment log: %w", err)
	}
	metrics.RecordPaymentLogAppend(true)

	decision := Transition(n)
	if !decision.Apply {
		log.Info().
			Str("order_ref", orderRef).
			Str("transaction_status", logging.SanitizeValue(n.TransactionStatus)).
			Str("fraud_status", logging.SanitizeValue(n.FraudStatus)).
			Msg("Payment notification recorded without status change")
		return OutcomeNoTransition, nil
	}

	ok, err := e.donations.ApplyTransition(ctx, n.OrderID, decision.Status, decision.PaymentMethod)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("apply transition: %w", err)
	}
	if !ok {
		log.Warn().Str("order_ref", orderRef).Msg("Donation disappeared before status update")
		return OutcomeUnknownOrder, nil
	}
	metrics.RecordStatusTransition(string(decision.Status))

	log.Info().
		Int64("donation_id", donation.ID).
		Str("order_ref", orderRef).
		Str("from", string(donation.Status)).
		Str("to", string(decision.Status)).
		Msg("Donation status updated")

	e.publish(ctx, donation, n, decision)
	return OutcomeApplied, nil
}

func (e *Engine) publish(ctx context.Context, donation *models.Donation, n *Notification, decision Decision) {
	if e.publisher == nil {
		return
	}
	evt := &events.DonationStatusChanged{
		EventID:        uuid.NewString(),
		DonationID:     donation.ID,
		OrderReference: donation.OrderReference,
		PreviousStatus: donation.Status,
		Status:         decision.Status,
		PaymentMethod:  decision.PaymentMethod,
		TransactionID:  n.TransactionID,
		OccurredAt:     time.Now().UTC(),
	}
	if err := e.publisher.PublishStatusChanged(ctx, evt); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("order_ref", donation.OrderReference).
			Msg("Failed to publish donation status event")
	}
}
