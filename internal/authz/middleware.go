// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package authz

import (
	"net/http"

	"github.com/tomtom215/donationledger/internal/auth"
	"github.com/tomtom215/donationledger/internal/logging"
)

// Middleware guards routes with the enforcer. It must run after
// auth.Middleware.Authenticate.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware creates the authorization middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// Authorize returns chi middleware that requires permission for object and
// action.
func (m *Middleware) Authorize(object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				auth.WriteError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			allowed, err := m.enforcer.Enforce(claims.Role, object, action)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization check failed")
				auth.WriteError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Authorization check failed")
				return
			}
			if !allowed {
				logging.Ctx(r.Context()).Debug().
					Str("subject", claims.Subject).
					Str("role", string(claims.Role)).
					Str("object", object).
					Str("action", action).
					Msg("Access denied")
				auth.WriteError(w, r, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
