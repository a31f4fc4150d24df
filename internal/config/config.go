// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

// Package config loads and validates the server configuration.
//
// Configuration is layered with Koanf v2 (highest priority wins):
//
//  1. Environment variables (explicit mapping, see envTransformFunc)
//  2. YAML config file (CONFIG_PATH or config.yaml)
//  3. Built-in defaults
package config

import "time"

// Config is the root configuration object.
type Config struct {
	Server         ServerConfig         `koanf:"server"`
	Database       DatabaseConfig       `koanf:"database"`
	Gateway        GatewayConfig        `koanf:"gateway"`
	Reconciliation ReconciliationConfig `koanf:"reconciliation"`
	Security       SecurityConfig       `koanf:"security"`
	API            APIConfig            `koanf:"api"`
	Events         EventsConfig         `koanf:"events"`
	Logging        LoggingConfig        `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// GatewayConfig holds the payment gateway (Snap API) settings.
type GatewayConfig struct {
	// ServerKey authenticates outbound session requests and is the shared
	// secret for inbound notification signatures.
	ServerKey string `koanf:"server_key"`

	// BaseURL overrides the sandbox/production endpoint when set.
	BaseURL string `koanf:"base_url"`

	// Production selects the production endpoint when BaseURL is empty.
	Production bool `koanf:"production"`

	// Timeout bounds a single session request.
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond limits outbound session requests (0 = unlimited).
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// ReconciliationConfig holds payment notification handling policy.
type ReconciliationConfig struct {
	// LogUnauthenticated appends notifications that fail signature
	// verification to the payment log (authenticated=false).
	LogUnauthenticated bool `koanf:"log_unauthenticated"`

	// OrderPrefix is the order reference prefix this service owns.
	OrderPrefix string `koanf:"order_prefix"`

	// MaxBodyBytes caps the notification body size.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// SecurityConfig holds authentication and HTTP hardening settings.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// APIConfig holds listing and pagination settings.
type APIConfig struct {
	DefaultPageSize  int   `koanf:"default_page_size"`
	AllowedPageSizes []int `koanf:"allowed_page_sizes"`
}

// EventsConfig holds status-change event publishing settings.
type EventsConfig struct {
	Enabled        bool          `koanf:"enabled"`
	NATSURL        string        `koanf:"nats_url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	EmbeddedPort   int           `koanf:"embedded_port"` // -1 picks a random port
	StoreDir       string        `koanf:"store_dir"`
	Topic          string        `koanf:"topic"`
	OutboxEnabled  bool          `koanf:"outbox_enabled"`
	OutboxPath     string        `koanf:"outbox_path"`
	RetryInterval  time.Duration `koanf:"retry_interval"`
	MaxReconnects  int           `koanf:"max_reconnects"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// Load reads configuration from defaults, config file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// IsPageSizeAllowed reports whether size is one of the allowed page sizes.
func (c *APIConfig) IsPageSizeAllowed(size int) bool {
	for _, allowed := range c.AllowedPageSizes {
		if size == allowed {
			return true
		}
	}
	return false
}
