// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package events

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/donationledger/internal/logging"
	"github.com/tomtom215/donationledger/internal/metrics"
)

// RawPublisher sends an already-encoded event.
type RawPublisher interface {
	PublishRaw(ctx context.Context, id, topic string, payload []byte) error
}

// RetryLoop republishes outbox entries on an interval until the broker
// accepts them.
//
// Each tick reads the pending set oldest first and hands every entry to the
// publisher. Delivered entries are confirmed and removed; failures bump the
// entry's attempt count and stay queued for the next tick. Status events
// carry a stable EventID, so a consumer sees the same id however many times
// an entry is resent.
type RetryLoop struct {
	outbox    *Outbox
	publisher RawPublisher
	interval  time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRetryLoop creates a retry loop. Intervals under a second are raised to
// one second.
func NewRetryLoop(outbox *Outbox, publisher RawPublisher, interval time.Duration) *RetryLoop {
	if interval < time.Second {
		interval = time.Second
	}
	return &RetryLoop{outbox: outbox, publisher: publisher, interval: interval}
}

// Start begins the background loop. Calling Start twice is a no-op.
func (r *RetryLoop) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.wg.Add(1)
	go r.run(loopCtx)
	return nil
}

// Stop ends the loop and waits for it to exit.
func (r *RetryLoop) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.running = false
	r.mu.Unlock()

	r.wg.Wait()
}

// IsRunning reports whether the loop is active.
func (r *RetryLoop) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *RetryLoop) run(ctx context.Context) {
	defer r.wg.Done()

	// Drain anything left over from a previous run first.
	r.RetryOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RetryOnce(ctx)
		}
	}
}

// RetryOnce republishes every pending entry once and returns how many were
// delivered.
func (r *RetryLoop) RetryOnce(ctx context.Context) int {
	log := logging.WithComponent("outbox-retry")

	entries, err := r.outbox.Pending(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Outbox scan failed")
		return 0
	}

	delivered := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if err := r.publisher.PublishRaw(ctx, entry.ID, entry.Topic, entry.Payload); err != nil {
			metrics.RecordOutboxRetry(false)
			if recErr := r.outbox.RecordAttempt(ctx, entry.ID, err); recErr != nil {
				log.Debug().Err(recErr).Str("event_id", entry.ID).Msg("Failed to record outbox attempt")
			}
			log.Debug().Err(err).Str("event_id", entry.ID).Int("attempts", entry.Attempts+1).Msg("Outbox republish failed")
			continue
		}
		if err := r.outbox.Confirm(ctx, entry.ID); err != nil {
			log.Warn().Err(err).Str("event_id", entry.ID).Msg("Failed to confirm outbox entry")
			continue
		}
		metrics.RecordOutboxRetry(true)
		delivered++
	}

	if delivered > 0 {
		log.Info().Int("delivered", delivered).Int("pending", len(entries)-delivered).Msg("Outbox entries republished")
	}
	return delivered
}
