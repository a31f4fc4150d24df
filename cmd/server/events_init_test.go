// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/donationledger/internal/config"
	"github.com/tomtom215/donationledger/internal/events"
	"github.com/tomtom215/donationledger/internal/logging"
	"github.com/tomtom215/donationledger/internal/models"
	"github.com/tomtom215/donationledger/internal/supervisor"
)

func newTestTree(t *testing.T) *supervisor.SupervisorTree {
	t.Helper()
	tree, err := supervisor.NewSupervisorTree(slog.New(logging.NewSlogHandler()), supervisor.DefaultTreeConfig())
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}
	return tree
}

func TestInitEventsDisabled(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	stack, err := initEvents(context.Background(), cfg, newTestTree(t))
	if err != nil {
		t.Fatalf("initEvents() error = %v", err)
	}
	if stack.statusPublisher() != nil {
		t.Error("statusPublisher() should be nil when events are disabled")
	}
	stack.close()
}

func TestInitEventsEmbedded(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded NATS server")
	}

	dir := t.TempDir()
	cfg := &config.Config{
		Server: config.ServerConfig{ShutdownTimeout: 5 * time.Second},
		Events: config.EventsConfig{
			Enabled:        true,
			EmbeddedServer: true,
			EmbeddedPort:   -1,
			StoreDir:       filepath.Join(dir, "nats"),
			Topic:          events.TopicDonationStatus,
			OutboxEnabled:  true,
			OutboxPath:     filepath.Join(dir, "outbox"),
			RetryInterval:  time.Second,
			MaxReconnects:  1,
			ReconnectWait:  100 * time.Millisecond,
		},
	}

	tree := newTestTree(t)
	stack, err := initEvents(context.Background(), cfg, tree)
	if err != nil {
		t.Fatalf("initEvents() error = %v", err)
	}
	defer func() {
		stack.close()
		stack.shutdownServer()
	}()

	if stack.server == nil || stack.outbox == nil || stack.publisher == nil {
		t.Fatalf("stack not fully built: %+v", stack)
	}
	if got := stack.publisher.State(); got != "closed" {
		t.Errorf("publisher State() = %q, want closed", got)
	}

	evt := &events.DonationStatusChanged{
		EventID:        "evt-main-1",
		DonationID:     1,
		OrderReference: "donation-1-20260101000000",
		PreviousStatus: models.StatusPending,
		Status:         models.StatusSuccess,
		OccurredAt:     time.Now().UTC(),
	}
	if err := stack.statusPublisher().PublishStatusChanged(context.Background(), evt); err != nil {
		t.Fatalf("PublishStatusChanged() error = %v", err)
	}
	if n, err := stack.outbox.Len(); err != nil || n != 0 {
		t.Errorf("outbox Len() = %d, %v; want 0 after a confirmed publish", n, err)
	}
}
