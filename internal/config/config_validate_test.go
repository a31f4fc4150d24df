// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package config

import (
	"strings"
	"testing"
)

func validTestConfig() *Config {
	cfg := defaultConfig()
	cfg.Gateway.ServerKey = "SB-Mid-server-test"
	cfg.Security.JWTSecret = testJWTSecret
	return cfg
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid defaults", mutate: func(c *Config) {}},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.Security.JWTSecret = "short" },
			wantErr: "JWT_SECRET",
		},
		{
			name:    "relative gateway url",
			mutate:  func(c *Config) { c.Gateway.BaseURL = "/snap" },
			wantErr: "GATEWAY_BASE_URL",
		},
		{
			name:    "default page size outside allow list",
			mutate:  func(c *Config) { c.API.DefaultPageSize = 25 },
			wantErr: "API_DEFAULT_PAGE_SIZE",
		},
		{
			name:    "empty order prefix",
			mutate:  func(c *Config) { c.Reconciliation.OrderPrefix = "" },
			wantErr: "RECONCILE_ORDER_PREFIX",
		},
		{
			name: "wildcard cors in production",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
				c.Security.CORSOrigins = []string{"*"}
			},
			wantErr: "CORS_ORIGINS",
		},
		{
			name: "outbox without path",
			mutate: func(c *Config) {
				c.Events.Enabled = true
				c.Events.OutboxEnabled = true
				c.Events.OutboxPath = ""
			},
			wantErr: "OUTBOX_PATH",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "LOG_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validTestConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestIsPageSizeAllowed(t *testing.T) {
	t.Parallel()

	api := APIConfig{AllowedPageSizes: []int{30, 50, 80}}
	for _, size := range []int{30, 50, 80} {
		if !api.IsPageSizeAllowed(size) {
			t.Errorf("IsPageSizeAllowed(%d) = false, want true", size)
		}
	}
	for _, size := range []int{0, 10, 100} {
		if api.IsPageSizeAllowed(size) {
			t.Errorf("IsPageSizeAllowed(%d) = true, want false", size)
		}
	}
}
