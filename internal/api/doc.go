// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

/*
Package api provides the HTTP REST API layer for the donation ledger.

Key Components:

  - Router: chi route table and middleware stack
  - Handler: donation intake, listings, account deletion, notifications
  - ResponseWriter: the standard JSON envelope with request metadata
  - Request parsing: bounded JSON decoding, validation, listing filters

Endpoints (all under /api/v1):

	POST   /donations                 public, optional bearer token
	POST   /donations/{id}/session    public, idempotent gateway session retry
	GET    /donations                 Admin, Supervisor
	GET    /donations/mine            any authenticated account
	GET    /donations/{id}            staff, or the owning account
	DELETE /accounts/{id}             Admin
	POST   /notifications/payment     payment processor callback
	GET    /health                    database and circuit state

/metrics is served at the root by promhttp.

Response Format:

Every endpoint except the processor callback responds with:

	{
	  "success": true,
	  "data": {...},
	  "meta": {"request_id": "...", "timestamp": "...", "pagination": {...}}
	}

Errors carry {"code", "message", "details", "request_id"} in "error".
The callback always answers {"success":true,"message":"OK"} unless the
notification could not be stored, in which case it answers 500 so the
processor redelivers.

Middleware Order:

	RequestIDWithLogging -> RealIP -> Recoverer -> CORS
	  -> APISecurityHeaders -> PrometheusMetrics -> RateLimit -> auth -> authz

The callback is mounted before RateLimit.
*/
package api
