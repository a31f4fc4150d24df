// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package api

import (
	"context"
	"net/http"
	"time"
)

// Version is set at build time.
var Version = "dev"

// HealthStatus is the GET /health body.
type HealthStatus struct {
	Status            string            `json:"status"`
	Version           string            `json:"version"`
	DatabaseConnected bool              `json:"database_connected"`
	Components        map[string]string `json:"components,omitempty"`
	UptimeSeconds     float64           `json:"uptime_seconds"`
}

// Health handles GET /api/v1/health. It returns 503 when the database is
// unreachable and "degraded" when a component circuit is open.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbConnected := h.store != nil && h.store.Ping(ctx) == nil

	health := HealthStatus{
		Status:            "healthy",
		Version:           Version,
		DatabaseConnected: dbConnected,
		UptimeSeconds:     time.Since(h.startTime).Seconds(),
	}

	if len(h.components) > 0 {
		health.Components = make(map[string]string, len(h.components))
		for name, c := range h.components {
			state := c.State()
			health.Components[name] = state
			if state == "open" {
				health.Status = "degraded"
			}
		}
	}

	rw := NewResponseWriter(w, r)
	if !dbConnected {
		health.Status = "unhealthy"
		rw.writeJSON(http.StatusServiceUnavailable, APIResponse{Success: false, Data: health, Meta: rw.meta()})
		return
	}
	rw.Success(health)
}
