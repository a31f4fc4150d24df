// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

// Package main is the entry point for the Donation Ledger server.
//
// The server records donations, opens hosted payment sessions with the
// payment gateway and reconciles the gateway's asynchronous payment
// notifications into donation state.
//
// # Startup
//
// Components are initialized in this order:
//
//  1. Configuration (Koanf v2: environment > config file > defaults)
//  2. Logging (zerolog)
//  3. DuckDB store and the payment notification log
//  4. Gateway client behind a circuit breaker
//  5. Status events (optional): embedded NATS, JetStream stream, outbox
//  6. Reconciliation engine, authorization and JWT
//  7. HTTP server under the suture supervisor tree
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor context. Each supervised service
// shuts down its component and the process exits once the tree has stopped.
package main
