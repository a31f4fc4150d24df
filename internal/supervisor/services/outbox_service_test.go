// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/donationledger/internal/events"
)

type collectingPublisher struct {
	mu  sync.Mutex
	ids []string
}

func (c *collectingPublisher) PublishRaw(_ context.Context, id, _ string, _ []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, id)
	return nil
}

func (c *collectingPublisher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ids)
}

func TestOutboxRetryServiceDrainsAndStops(t *testing.T) {
	ctx := context.Background()

	outbox, err := events.OpenOutbox(events.OutboxConfig{InMemory: true})
	if err != nil {
		t.Fatalf("OpenOutbox() error = %v", err)
	}
	defer outbox.Close()

	if err := outbox.Write(ctx, "evt-1", events.TopicDonationStatus, []byte(`{"donation_id":1}`)); err != nil {
		t.Fatal(err)
	}

	pub := &collectingPublisher{}
	loop := events.NewRetryLoop(outbox, pub, time.Second)
	svc := NewOutboxRetryService(loop)
	if svc.String() != "outbox-retry-loop" {
		t.Errorf("String() = %q", svc.String())
	}

	svcCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(svcCtx) }()

	pending := func() int {
		n, err := outbox.Len()
		if err != nil {
			t.Fatalf("Len() error = %v", err)
		}
		return n
	}
	deadline := time.Now().Add(2 * time.Second)
	for pending() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if pub.count() != 1 {
		t.Fatalf("republished %d entries, want 1", pub.count())
	}
	if n := pending(); n != 0 {
		t.Errorf("outbox still holds %d entries", n)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	if loop.IsRunning() {
		t.Error("retry loop still running after Serve returned")
	}
}

type failingStarter struct{ stopped bool }

func (f *failingStarter) Start(context.Context) error { return errors.New("outbox closed") }
func (f *failingStarter) Stop()                       { f.stopped = true }
func (f *failingStarter) IsRunning() bool             { return false }

func TestOutboxRetryServiceStartFailure(t *testing.T) {
	starter := &failingStarter{}
	err := NewOutboxRetryService(starter).Serve(context.Background())
	if err == nil {
		t.Fatal("Serve() should fail when the loop cannot start")
	}
	if starter.stopped {
		t.Error("Stop should not be called after a failed Start")
	}
}
