// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// minJWTSecretLength is the minimum accepted HS256 secret length.
const minJWTSecretLength = 32

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateGateway(); err != nil {
		return err
	}
	if err := c.validateReconciliation(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging or production, got %q", c.Server.Environment)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	return nil
}

func (c *Config) validateGateway() error {
	if c.Gateway.ServerKey == "" {
		return fmt.Errorf("GATEWAY_SERVER_KEY is required")
	}
	if c.Gateway.BaseURL != "" {
		u, err := url.Parse(c.Gateway.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("GATEWAY_BASE_URL must be an absolute http(s) URL")
		}
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive")
	}
	if c.Gateway.RequestsPerSecond < 0 {
		return fmt.Errorf("GATEWAY_REQUESTS_PER_SECOND must not be negative")
	}
	return nil
}

func (c *Config) validateReconciliation() error {
	if c.Reconciliation.OrderPrefix == "" {
		return fmt.Errorf("RECONCILE_ORDER_PREFIX is required")
	}
	if c.Reconciliation.MaxBodyBytes <= 0 {
		return fmt.Errorf("RECONCILE_MAX_BODY_BYTES must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs <= 0 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	if c.IsProduction() {
		for _, origin := range c.Security.CORSOrigins {
			if strings.TrimSpace(origin) == "*" {
				return fmt.Errorf("CORS_ORIGINS must not contain '*' in production")
			}
		}
	}
	return nil
}

func (c *Config) validateAPI() error {
	if len(c.API.AllowedPageSizes) == 0 {
		return fmt.Errorf("API_ALLOWED_PAGE_SIZES must not be empty")
	}
	for _, size := range c.API.AllowedPageSizes {
		if size <= 0 {
			return fmt.Errorf("API_ALLOWED_PAGE_SIZES must contain positive values, got %d", size)
		}
	}
	if !c.API.IsPageSizeAllowed(c.API.DefaultPageSize) {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE %d is not in API_ALLOWED_PAGE_SIZES", c.API.DefaultPageSize)
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	if c.Events.Topic == "" {
		return fmt.Errorf("EVENTS_TOPIC is required when EVENTS_ENABLED=true")
	}
	if !c.Events.EmbeddedServer && c.Events.NATSURL == "" {
		return fmt.Errorf("NATS_URL is required when NATS_EMBEDDED=false")
	}
	if c.Events.EmbeddedServer && c.Events.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}
	if c.Events.OutboxEnabled {
		if c.Events.OutboxPath == "" {
			return fmt.Errorf("OUTBOX_PATH is required when OUTBOX_ENABLED=true")
		}
		if c.Events.RetryInterval <= 0 {
			return fmt.Errorf("OUTBOX_RETRY_INTERVAL must be positive")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
