// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Donation lifecycle
	DonationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donations_created_total",
			Help: "Total number of donations created",
		},
		[]string{"anonymous"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_notifications_total",
			Help: "Payment notifications received, by reconciliation outcome",
		},
		[]string{"outcome"},
	)

	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donation_status_transitions_total",
			Help: "Donation status transitions applied, by target status",
		},
		[]string{"status"},
	)

	PaymentLogAppends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_log_appends_total",
			Help: "Payment log entries written",
		},
		[]string{"authenticated"},
	)

	// Gateway
	GatewaySessionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_session_requests_total",
			Help: "Payment session requests sent to the gateway",
		},
		[]string{"result"}, // "success", "error", "rejected"
	)

	GatewaySessionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_session_duration_seconds",
			Help:    "Latency of gateway session requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Events
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donation_events_published_total",
			Help: "Donation status events handed to the message broker",
		},
		[]string{"result"}, // "success", "failure"
	)

	OutboxPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "donation_events_outbox_pending",
			Help: "Events written to the outbox and not yet confirmed",
		},
	)

	OutboxRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donation_events_outbox_retries_total",
			Help: "Outbox republish attempts",
		},
		[]string{"result"},
	)

	// Authorization metrics
	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donation_authz_decisions_total",
			Help: "Authorization decisions by object, action and result",
		},
		[]string{"object", "action", "result"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDonationCreated counts a new donation.
func RecordDonationCreated(anonymous bool) {
	DonationsCreated.WithLabelValues(boolLabel(anonymous)).Inc()
}

// RecordNotification counts a processed notification by outcome.
func RecordNotification(outcome string) {
	NotificationsTotal.WithLabelValues(outcome).Inc()
}

// RecordStatusTransition counts an applied transition.
func RecordStatusTransition(status string) {
	StatusTransitions.WithLabelValues(status).Inc()
}

// RecordPaymentLogAppend counts a payment log write.
func RecordPaymentLogAppend(authenticated bool) {
	PaymentLogAppends.WithLabelValues(boolLabel(authenticated)).Inc()
}

// RecordGatewaySession records one gateway session request.
func RecordGatewaySession(result string, duration time.Duration) {
	GatewaySessionRequests.WithLabelValues(result).Inc()
	GatewaySessionDuration.Observe(duration.Seconds())
}

// RecordEventPublish counts a broker publish attempt.
func RecordEventPublish(success bool) {
	if success {
		EventsPublished.WithLabelValues("success").Inc()
		return
	}
	EventsPublished.WithLabelValues("failure").Inc()
}

// RecordOutboxRetry counts an outbox republish.
func RecordOutboxRetry(success bool) {
	if success {
		OutboxRetries.WithLabelValues("success").Inc()
		return
	}
	OutboxRetries.WithLabelValues("failure").Inc()
}

// RecordAuthzDecision records an RBAC decision
func RecordAuthzDecision(object, action string, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	AuthzDecisions.WithLabelValues(object, action, result).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
