// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package api

import (
	"context"
	"time"

	"github.com/tomtom215/donationledger/internal/authz"
	"github.com/tomtom215/donationledger/internal/config"
	"github.com/tomtom215/donationledger/internal/gateway"
	"github.com/tomtom215/donationledger/internal/models"
	"github.com/tomtom215/donationledger/internal/paymentlog"
	"github.com/tomtom215/donationledger/internal/reconcile"
)

// Store is the persistence the handlers use. *database.DB implements it.
type Store interface {
	CreateDonation(ctx context.Context, in models.NewDonation) (*models.Donation, error)
	GetDonation(ctx context.Context, id int64) (*models.Donation, error)
	ListDonations(ctx context.Context, filter models.DonationFilter) ([]models.Donation, int, error)
	ListDonationsByUser(ctx context.Context, userID int64) ([]models.Donation, error)
	SetGatewaySession(ctx context.Context, id int64, session models.GatewaySession) error
	DeleteAccount(ctx context.Context, id int64) (int64, error)
	Ping(ctx context.Context) error
}

// StateReporter reports a component's circuit or connection state for the
// health endpoint.
type StateReporter interface {
	State() string
}

// HandlerDeps are the Handler's collaborators. Gateway and Events are
// optional in tests.
type HandlerDeps struct {
	Store       Store
	PaymentLogs paymentlog.Store
	Sessions    gateway.SessionCreator
	Engine      *reconcile.Engine
	Enforcer    *authz.Enforcer
	Config      *config.Config
	Components  map[string]StateReporter
}

// Handler serves the API endpoints.
type Handler struct {
	store      Store
	logs       paymentlog.Store
	sessions   gateway.SessionCreator
	engine     *reconcile.Engine
	enforcer   *authz.Enforcer
	config     *config.Config
	components map[string]StateReporter
	startTime  time.Time
}

// NewHandler creates a Handler.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		store:      deps.Store,
		logs:       deps.PaymentLogs,
		sessions:   deps.Sessions,
		engine:     deps.Engine,
		enforcer:   deps.Enforcer,
		config:     deps.Config,
		components: deps.Components,
		startTime:  time.Now(),
	}
}
