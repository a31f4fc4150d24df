// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/donationledger/internal/api"
	"github.com/tomtom215/donationledger/internal/auth"
	"github.com/tomtom215/donationledger/internal/authz"
	"github.com/tomtom215/donationledger/internal/config"
	"github.com/tomtom215/donationledger/internal/database"
	"github.com/tomtom215/donationledger/internal/gateway"
	"github.com/tomtom215/donationledger/internal/logging"
	"github.com/tomtom215/donationledger/internal/paymentlog"
	"github.com/tomtom215/donationledger/internal/reconcile"
	"github.com/tomtom215/donationledger/internal/supervisor"
	"github.com/tomtom215/donationledger/internal/supervisor/services"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
		Fields: map[string]string{
			"service":     "donationledger",
			"version":     api.Version,
			"environment": cfg.Server.Environment,
		},
	})
	logging.Info().Msg("Starting Donation Ledger")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close database")
		}
	}()

	ctx := context.Background()

	logs := paymentlog.NewDuckDBStore(db.Conn())
	if err := logs.CreateTable(ctx); err != nil {
		return fmt.Errorf("create payment log table: %w", err)
	}

	sessions := gateway.NewCircuitBreakerClient(gateway.NewClient(&cfg.Gateway))

	tree, err := supervisor.NewSupervisorTree(slog.New(logging.NewSlogHandler()), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	stack, err := initEvents(ctx, cfg, tree)
	if err != nil {
		return err
	}
	defer stack.close()

	engine := reconcile.NewEngine(db, logs, reconcile.NewAuthenticator(cfg.Gateway.ServerKey), stack.statusPublisher(), reconcile.Config{
		OrderPrefix:        cfg.Reconciliation.OrderPrefix,
		LogUnauthenticated: cfg.Reconciliation.LogUnauthenticated,
	})

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		return fmt.Errorf("create authorization enforcer: %w", err)
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return fmt.Errorf("create JWT manager: %w", err)
	}

	components := map[string]api.StateReporter{"gateway": sessions}
	if stack.publisher != nil {
		components["events"] = stack.publisher
	}

	handler := api.NewHandler(api.HandlerDeps{
		Store:       db,
		PaymentLogs: logs,
		Sessions:    sessions,
		Engine:      engine,
		Enforcer:    enforcer,
		Config:      cfg,
		Components:  components,
	})
	router := api.NewRouter(
		handler,
		auth.NewMiddleware(jwtManager),
		api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.Security)),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("HTTP server starting")

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(sigCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}

	logging.Info().Msg("Server stopped")
	return nil
}
