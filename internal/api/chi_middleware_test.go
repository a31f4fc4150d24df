// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package api

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/donationledger/internal/config"
	"github.com/tomtom215/donationledger/internal/logging"
)

func okHandler(called *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if called != nil {
			*called++
		}
		w.WriteHeader(http.StatusOK)
	})
}

// =====================================================
// Configuration
// =====================================================

func TestChiMiddlewareConfigFrom(t *testing.T) {
	cfg := ChiMiddlewareConfigFrom(&config.SecurityConfig{
		RateLimitReqs:   120,
		RateLimitWindow: 2 * time.Minute,
		CORSOrigins:     []string{"https://donate.example.test"},
	})

	if cfg.RateLimitRequests != 120 || cfg.RateLimitWindow != 2*time.Minute || cfg.RateLimitDisabled {
		t.Errorf("rate limit config = %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "https://donate.example.test" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.CORSMaxAge != 86400 {
		t.Errorf("CORSMaxAge = %d, want 86400", cfg.CORSMaxAge)
	}
	methods := strings.Join(cfg.CORSAllowedMethods, ",")
	if !strings.Contains(methods, "DELETE") || !strings.Contains(methods, "POST") {
		t.Errorf("CORSAllowedMethods = %v", cfg.CORSAllowedMethods)
	}
}

// =====================================================
// CORS
// =====================================================

func TestChiMiddleware_CORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		preflight  bool
		wantOrigin string
		wantCalled bool
	}{
		{"wildcard", []string{"*"}, http.MethodGet, "https://a.test", false, "*", true},
		{"specific allowed", []string{"https://a.test"}, http.MethodGet, "https://a.test", false, "https://a.test", true},
		{"specific denied", []string{"https://a.test"}, http.MethodGet, "https://b.test", false, "", true},
		{"no origin", []string{"https://a.test"}, http.MethodGet, "", false, "", true},
		{"preflight allowed", []string{"*"}, http.MethodOptions, "https://a.test", true, "*", false},
		{"preflight denied", []string{"https://a.test"}, http.MethodOptions, "https://b.test", true, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewChiMiddleware(&ChiMiddlewareConfig{
				CORSAllowedOrigins: tt.allowed,
				CORSAllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
				CORSAllowedHeaders: []string{"Content-Type", "Authorization"},
				CORSMaxAge:         86400,
			})
			called := 0
			handler := m.CORS()(okHandler(&called))

			req := httptest.NewRequest(tt.method, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", "POST")
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if (called > 0) != tt.wantCalled {
				t.Errorf("handler called = %v, want %v", called > 0, tt.wantCalled)
			}
		})
	}
}

// =====================================================
// Rate Limiting
// =====================================================

func TestChiMiddleware_RateLimit_Disabled(t *testing.T) {
	for _, cfg := range []*ChiMiddlewareConfig{
		{RateLimitDisabled: true, RateLimitRequests: 3, RateLimitWindow: time.Second},
		{RateLimitRequests: 0, RateLimitWindow: time.Second},
	} {
		m := NewChiMiddleware(cfg)
		called := 0
		handler := m.RateLimit()(okHandler(&called))

		for i := 0; i < 10; i++ {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Errorf("request %d: status = %d", i, w.Code)
			}
		}
		if called != 10 {
			t.Errorf("called = %d, want 10", called)
		}
	}
}

func TestChiMiddleware_RateLimit_PerIP(t *testing.T) {
	m := NewChiMiddleware(&ChiMiddlewareConfig{
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
	})
	handler := m.RateLimit()(okHandler(nil))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/donations", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := send("10.0.0.1:1000"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, w.Code)
		}
	}
	w := send("10.0.0.1:1000")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Too Many Requests") {
		t.Errorf("429 body = %s", w.Body.String())
	}

	if w := send("10.0.0.2:1000"); w.Code != http.StatusOK {
		t.Errorf("other IP status = %d, want 200", w.Code)
	}
}

// =====================================================
// Request ID and Security Headers
// =====================================================

func TestRequestIDWithLogging(t *testing.T) {
	var seen, correlation string
	handler := RequestIDWithLogging()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
		correlation = logging.CorrelationIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if seen != "client-supplied" || w.Header().Get("X-Request-ID") != "client-supplied" {
		t.Errorf("request id = %q, header = %q", seen, w.Header().Get("X-Request-ID"))
	}
	if correlation == "" {
		t.Error("correlation id should be set")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 200))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if seen == "" || len(seen) > 128 || w.Header().Get("X-Request-ID") != seen {
		t.Errorf("oversized request id was not replaced: %q", seen)
	}
}

func TestAPISecurityHeaders(t *testing.T) {
	handler := APISecurityHeaders()(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	} {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS should only be set over TLS")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HSTS should be set over TLS")
	}
}
