// Donation Ledger - Donation Management and Payment Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/donationledger

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/donationledger/internal/auth"
	"github.com/tomtom215/donationledger/internal/authz"
	"github.com/tomtom215/donationledger/internal/config"
	"github.com/tomtom215/donationledger/internal/database"
	"github.com/tomtom215/donationledger/internal/gateway"
	"github.com/tomtom215/donationledger/internal/models"
	"github.com/tomtom215/donationledger/internal/paymentlog"
	"github.com/tomtom215/donationledger/internal/reconcile"
)

const (
	testServerKey = "SB-Mid-server-api-test"
	testJWTSecret = "api-test-secret-with-enough-entropy-0123456789"
)

// stubSessions is a gateway.SessionCreator that issues predictable sessions.
type stubSessions struct {
	mu    sync.Mutex
	calls []gateway.SessionRequest
	err   error
}

func (s *stubSessions) CreateSession(_ context.Context, req gateway.SessionRequest) (*models.GatewaySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	return &models.GatewaySession{
		Token:       "tok-" + req.OrderReference,
		RedirectURL: "https://pay.example.test/" + req.OrderReference,
	}, nil
}

func (s *stubSessions) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubSessions) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type fixedState string

func (f fixedState) State() string { return string(f) }

type testEnv struct {
	db       *database.DB
	logs     *paymentlog.DuckDBStore
	sessions *stubSessions
	jwt      *auth.JWTManager
	handler  *Handler
	server   http.Handler
}

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Path: ":memory:", MaxMemory: "256MB", Threads: 1},
		Security: config.SecurityConfig{
			JWTSecret:         testJWTSecret,
			SessionTimeout:    time.Hour,
			RateLimitDisabled: true,
		},
		API: config.APIConfig{DefaultPageSize: 30, AllowedPageSizes: []int{30, 50, 80}},
		Reconciliation: config.ReconciliationConfig{
			OrderPrefix:  models.OrderReferencePrefix,
			MaxBodyBytes: 1 << 20,
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testConfig()

	db, err := database.New(&cfg.Database)
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	logs := paymentlog.NewDuckDBStore(db.Conn())
	if err := logs.CreateTable(context.Background()); err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	sessions := &stubSessions{}
	engine := reconcile.NewEngine(db, logs, reconcile.NewAuthenticator(testServerKey), nil, reconcile.Config{
		OrderPrefix: cfg.Reconciliation.OrderPrefix,
	})

	handler := NewHandler(HandlerDeps{
		Store:       db,
		PaymentLogs: logs,
		Sessions:    sessions,
		Engine:      engine,
		Enforcer:    enforcer,
		Config:      cfg,
		Components:  map[string]StateReporter{"gateway": fixedState("closed")},
	})
	router := NewRouter(handler, auth.NewMiddleware(jwtManager), NewChiMiddleware(ChiMiddlewareConfigFrom(&cfg.Security)))

	return &testEnv{
		db:       db,
		logs:     logs,
		sessions: sessions,
		jwt:      jwtManager,
		handler:  handler,
		server:   router.Setup(),
	}
}

// token signs a bearer token for an account, creating the account first.
func (e *testEnv) token(t *testing.T, username string, role models.Role) (int64, string) {
	t.Helper()
	acct, err := e.db.CreateAccount(context.Background(), models.Account{
		Username: username,
		Name:     username,
		Email:    username + "@example.test",
		Role:     role,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	tok, err := e.jwt.GenerateToken(acct.ID, role)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return acct.ID, tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

// createDonation stores a donation directly, bypassing the gateway.
func (e *testEnv) createDonation(t *testing.T, nd models.NewDonation) *models.Donation {
	t.Helper()
	nd.Normalize()
	d, err := e.db.CreateDonation(context.Background(), nd)
	if err != nil {
		t.Fatalf("CreateDonation() error = %v", err)
	}
	return d
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) envelope {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %q: %v", env.Data, err)
	}
	return env
}

func ptr[T any](v T) *T { return &v }

var errGatewayDown = errors.New("gateway unreachable")
