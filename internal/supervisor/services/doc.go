// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

/*
Package services provides suture.Service wrappers for the ledger's
long-running components.

Each wrapper translates a component's lifecycle into suture's
Serve(ctx) error and stops it when ctx is canceled:

  - HTTPServerService: *http.Server (ListenAndServe / Shutdown)
  - OutboxRetryService: *events.RetryLoop (Start / Stop)
  - NATSServerService: *events.EmbeddedServer (Shutdown on stop; a server
    found dead is reported with suture.ErrDoNotRestart)

Wrappers depend on small interfaces rather than the concrete types so they
can be tested with fakes and do not import the events package.
*/
package services
