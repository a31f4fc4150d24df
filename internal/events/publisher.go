// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/donationledger/internal/logging"
	"github.com/tomtom215/donationledger/internal/metrics"
)

// ErrPublisherClosed is returned after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// Publisher sends status-change events through a Watermill publisher with
// circuit breaker protection. When an outbox is attached, every event is
// persisted first and only removed once the broker accepts it.
type Publisher struct {
	publisher      message.Publisher
	circuitBreaker *gobreaker.CircuitBreaker[any]
	outbox         *Outbox
	topic          string

	mu     sync.RWMutex
	closed bool
}

// NewPublisher wraps pub. outbox may be nil; topic defaults to
// TopicDonationStatus.
func NewPublisher(pub message.Publisher, outbox *Outbox, topic string) *Publisher {
	if topic == "" {
		topic = TopicDonationStatus
	}
	return &Publisher{
		publisher:      pub,
		circuitBreaker: NewCircuitBreaker(DefaultCircuitBreakerConfig()),
		outbox:         outbox,
		topic:          topic,
	}
}

// SetCircuitBreaker replaces the default circuit breaker.
func (p *Publisher) SetCircuitBreaker(cb *gobreaker.CircuitBreaker[any]) {
	p.circuitBreaker = cb
}

// State reports the broker circuit breaker state: closed, half-open or open.
func (p *Publisher) State() string {
	return p.circuitBreaker.State().String()
}

// Topic returns the subject events are published on.
func (p *Publisher) Topic() string {
	return p.topic
}

// PublishStatusChanged encodes and publishes evt. If the broker rejects it
// and an outbox is attached, the event stays queued for the retry loop and
// the returned error says so.
func (p *Publisher) PublishStatusChanged(ctx context.Context, evt *DonationStatusChanged) error {
	data, err := Marshal(evt)
	if err != nil {
		return err
	}

	if p.outbox != nil {
		if err := p.outbox.Write(ctx, evt.EventID, p.topic, data); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("event_id", evt.EventID).Msg("Failed to persist event to outbox")
		} else {
			if err := p.PublishRaw(ctx, evt.EventID, p.topic, data); err != nil {
				return fmt.Errorf("publish event %s (queued for retry): %w", evt.EventID, err)
			}
			if err := p.outbox.Confirm(ctx, evt.EventID); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Str("event_id", evt.EventID).Msg("Failed to confirm outbox entry")
			}
			return nil
		}
	}

	if err := p.PublishRaw(ctx, evt.EventID, p.topic, data); err != nil {
		return fmt.Errorf("publish event %s: %w", evt.EventID, err)
	}
	return nil
}

// PublishRaw publishes an encoded event. The event id doubles as the
// Nats-Msg-Id so JetStream drops duplicates from retries.
func (p *Publisher) PublishRaw(ctx context.Context, id, topic string, payload []byte) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPublisherClosed
	}
	p.mu.RUnlock()

	msg := message.NewMessage(id, payload)
	msg.Metadata.Set(natsgo.MsgIdHdr, id)
	msg.SetContext(ctx)

	_, err := p.circuitBreaker.Execute(func() (any, error) {
		return nil, p.publisher.Publish(topic, msg)
	})
	metrics.RecordEventPublish(err == nil)
	return err
}

// Close shuts down the underlying publisher. The outbox is owned by the
// caller.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
