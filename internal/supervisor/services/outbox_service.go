// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package services

import (
	"context"
	"fmt"
)

// StartStopper matches *events.RetryLoop.
type StartStopper interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
}

// OutboxRetryService runs the event outbox retry loop under suture.
//
// The retry loop manages its own goroutine through Start and Stop. Serve
// adapts that to suture's model:
//
//  1. Start the loop with the supervisor's context
//  2. Block until ctx ends
//  3. Stop the loop and wait for its goroutine to exit
//
// Because Stop waits, a restart never overlaps a loop that is still
// republishing entries.
type OutboxRetryService struct {
	loop StartStopper
	name string
}

// NewOutboxRetryService wraps loop.
func NewOutboxRetryService(loop StartStopper) *OutboxRetryService {
	return &OutboxRetryService{loop: loop, name: "outbox-retry-loop"}
}

// Serve implements suture.Service. A Start failure is returned so suture
// can retry with backoff.
func (s *OutboxRetryService) Serve(ctx context.Context) error {
	if err := s.loop.Start(ctx); err != nil {
		return fmt.Errorf("outbox retry loop start failed: %w", err)
	}

	<-ctx.Done()
	s.loop.Stop()
	return ctx.Err()
}

func (s *OutboxRetryService) String() string {
	return s.name
}
