// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/donationledger/internal/auth"
	"github.com/tomtom215/donationledger/internal/authz"
	"github.com/tomtom215/donationledger/internal/middleware"
)

// Router wires handlers and middleware onto a chi mux.
type Router struct {
	handler         *Handler
	middleware      *auth.Middleware
	authzMiddleware *authz.Middleware
	chiMiddleware   *ChiMiddleware
}

// NewRouter creates a Router.
func NewRouter(handler *Handler, authMiddleware *auth.Middleware, chiMw *ChiMiddleware) *Router {
	return &Router{
		handler:         handler,
		middleware:      authMiddleware,
		authzMiddleware: authz.NewMiddleware(handler.enforcer),
		chiMiddleware:   chiMw,
	}
}

// Setup builds the HTTP handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(middleware.Compression)

		r.Get("/health", router.handler.Health)

		// The processor retries on anything but 200, so it is never rate limited.
		r.Post("/notifications/payment", router.handler.PaymentNotification)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())

			r.Route("/donations", func(r chi.Router) {
				r.With(router.middleware.OptionalAuthenticate).Post("/", router.handler.CreateDonation)
				r.Post("/{id}/session", router.handler.RetrySession)

				r.Group(func(r chi.Router) {
					r.Use(router.middleware.Authenticate)

					r.With(router.authzMiddleware.Authorize(authz.ObjectDonations, authz.ActionRead)).
						Get("/", router.handler.ListDonations)
					r.With(router.authzMiddleware.Authorize(authz.ObjectOwnDonations, authz.ActionRead)).
						Get("/mine", router.handler.MyDonations)
					r.Get("/{id}", router.handler.GetDonation)
				})
			})

			r.With(
				router.middleware.Authenticate,
				router.authzMiddleware.Authorize(authz.ObjectAccounts, authz.ActionDelete),
			).Delete("/accounts/{id}", router.handler.DeleteAccount)
		})
	})

	return r
}
