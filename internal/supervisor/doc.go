// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

/*
Package supervisor provides process supervision using suture v4.

Long-running services are grouped into three layers so a crash loop in one
layer backs off only that layer:

	Root ("donationledger")
	├── data-layer
	│   └── OutboxRetryService (when the event outbox is enabled)
	├── messaging-layer
	│   └── NATSServerService (when the embedded NATS server is enabled)
	└── api-layer
	    └── HTTPServerService

Supervisor events (service start, failure, backoff) are logged through a
slog.Logger using sutureslog. The server passes the zerolog-backed handler
from the logging package so they share the application log stream.

Usage:

	tree, err := supervisor.NewSupervisorTree(slog.New(logging.NewSlogHandler()), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddAPIService(services.NewHTTPServerService(httpServer, cfg.Server.ShutdownTimeout))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

See the services subpackage for the service wrappers.
*/
package supervisor
