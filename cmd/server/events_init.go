// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/donationledger/internal/config"
	"github.com/tomtom215/donationledger/internal/events"
	"github.com/tomtom215/donationledger/internal/logging"
	"github.com/tomtom215/donationledger/internal/reconcile"
	"github.com/tomtom215/donationledger/internal/supervisor"
	"github.com/tomtom215/donationledger/internal/supervisor/services"
)

// eventStack holds the optional status-event components. The zero value
// means events are disabled.
type eventStack struct {
	server    *events.EmbeddedServer
	outbox    *events.Outbox
	publisher *events.Publisher
}

// statusPublisher returns the engine's publisher, or nil when events are
// disabled. A nil *events.Publisher must not leak into the interface.
func (s *eventStack) statusPublisher() reconcile.StatusPublisher {
	if s.publisher == nil {
		return nil
	}
	return s.publisher
}

// close releases the publisher and outbox. The embedded server is stopped
// by its supervised service.
func (s *eventStack) close() {
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close event publisher")
		}
	}
	if s.outbox != nil {
		if err := s.outbox.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close event outbox")
		}
	}
}

// initEvents starts the embedded broker (if configured), ensures the
// JetStream stream, and builds the publisher with its outbox and retry
// loop. Long-running parts are added to tree.
func initEvents(ctx context.Context, cfg *config.Config, tree *supervisor.SupervisorTree) (*eventStack, error) {
	stack := &eventStack{}
	if !cfg.Events.Enabled {
		logging.Info().Msg("Status events disabled")
		return stack, nil
	}

	natsURL := cfg.Events.NATSURL
	if cfg.Events.EmbeddedServer {
		server, err := events.NewEmbeddedServer(events.ServerConfig{
			Host:     "127.0.0.1",
			Port:     cfg.Events.EmbeddedPort,
			StoreDir: cfg.Events.StoreDir,
		})
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		stack.server = server
		natsURL = server.ClientURL()
		tree.AddMessagingService(services.NewNATSServerService(server, cfg.Server.ShutdownTimeout))
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	}

	streamCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := events.EnsureStream(streamCtx, natsURL, cfg.Events.Topic); err != nil {
		stack.shutdownServer()
		return nil, fmt.Errorf("ensure event stream: %w", err)
	}

	natsPub, err := events.NewNATSPublisher(events.NATSConfig{
		URL:             natsURL,
		MaxReconnects:   cfg.Events.MaxReconnects,
		ReconnectWait:   cfg.Events.ReconnectWait,
		ReconnectBuffer: 8 * 1024 * 1024,
	}, watermill.NewSlogLogger(logging.NewSlogLogger()))
	if err != nil {
		stack.shutdownServer()
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}

	if cfg.Events.OutboxEnabled {
		outbox, err := events.OpenOutbox(events.OutboxConfig{
			Path:       cfg.Events.OutboxPath,
			SyncWrites: true,
		})
		if err != nil {
			_ = natsPub.Close()
			stack.shutdownServer()
			return nil, fmt.Errorf("open event outbox: %w", err)
		}
		stack.outbox = outbox
	}

	stack.publisher = events.NewPublisher(natsPub, stack.outbox, cfg.Events.Topic)

	if stack.outbox != nil {
		loop := events.NewRetryLoop(stack.outbox, stack.publisher, cfg.Events.RetryInterval)
		tree.AddDataService(services.NewOutboxRetryService(loop))
	}

	logging.Info().
		Str("topic", stack.publisher.Topic()).
		Bool("outbox", stack.outbox != nil).
		Msg("Status events enabled")
	return stack, nil
}

func (s *eventStack) shutdownServer() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to stop embedded NATS server")
	}
}
