// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"
)

// ErrNATSServerStopped is returned when the embedded server is found not
// running. The server is started once at boot and cannot be revived by a
// restart, so the error is wrapped with suture.ErrDoNotRestart.
var ErrNATSServerStopped = errors.New("embedded NATS server is not running")

// NATSServer matches *events.EmbeddedServer.
type NATSServer interface {
	Shutdown(ctx context.Context) error
	IsRunning() bool
}

// NATSServerService ties the embedded NATS server's lifetime to the tree.
//
// The server is started during boot, before the stream and publisher are
// built, so this service does not start it. Instead it:
//
//  1. Polls IsRunning every pollInterval while the tree runs
//  2. Returns ErrNATSServerStopped wrapped in suture.ErrDoNotRestart if the
//     server has died, since a restart cannot bring it back
//  3. Shuts the server down, draining JetStream, when ctx ends
//
// Example usage:
//
//	srv, _ := events.NewEmbeddedServer(events.ServerConfig{StoreDir: dir})
//	tree.AddMessagingService(services.NewNATSServerService(srv, 10*time.Second))
type NATSServerService struct {
	server          NATSServer
	shutdownTimeout time.Duration
	pollInterval    time.Duration
	name            string
}

// NewNATSServerService wraps server. A non-positive timeout becomes 10s.
func NewNATSServerService(server NATSServer, shutdownTimeout time.Duration) *NATSServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &NATSServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		pollInterval:    5 * time.Second,
		name:            "nats-server",
	}
}

// Serve implements suture.Service.
func (s *NATSServerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if !s.server.IsRunning() {
			return fmt.Errorf("%w: %w", ErrNATSServerStopped, suture.ErrDoNotRestart)
		}

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("nats server shutdown failed: %w", err)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *NATSServerService) String() string {
	return s.name
}
