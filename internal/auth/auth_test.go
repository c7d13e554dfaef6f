// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/twinpulse/internal/config"
	"github.com/tomtom215/twinpulse/internal/database"
	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

const testSecret = "test-secret-with-at-least-32-characters!"

func testSecurityConfig() *config.SecurityConfig {
	return &config.SecurityConfig{
		AuthMode:       config.AuthModeJWT,
		JWTSecret:      testSecret,
		SessionTimeout: time.Hour,
		AdminUsername:  "admin",
		AdminPassword:  "s3cret-pass",
	}
}

func newTestJWT(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(testSecurityConfig())
	if err != nil {
		t.Fatal(err)
	}
	return m
}

type userMap map[string]*models.User

func (u userMap) GetUserByUsername(_ context.Context, name string) (*models.User, error) {
	if user, ok := u[name]; ok {
		return user, nil
	}
	return nil, database.ErrUserNotFound
}

func TestJWTManager_RoundTrip(t *testing.T) {
	m := newTestJWT(t)
	token, expires, err := m.GenerateToken("alice", RoleOperator)
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(expires) > time.Hour || time.Until(expires) < 59*time.Minute {
		t.Errorf("expires = %v", expires)
	}
	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Username != "alice" || claims.Role != RoleOperator || claims.Issuer != Issuer {
		t.Errorf("claims = %+v", claims)
	}
}

func TestJWTManager_Rejects(t *testing.T) {
	m := newTestJWT(t)

	if _, err := NewJWTManager(&config.SecurityConfig{}); err == nil {
		t.Error("empty secret must be rejected")
	}

	other, err := NewJWTManager(&config.SecurityConfig{JWTSecret: "another-secret-of-sufficient-length!!", SessionTimeout: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	foreign, _, err := other.GenerateToken("mallory", RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}

	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := m.GenerateToken("alice", RoleViewer)
	if err != nil {
		t.Fatal(err)
	}
	m.now = time.Now

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "eve", Role: RoleAdmin})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	for name, token := range map[string]string{
		"wrong secret": foreign,
		"expired":      expired,
		"alg none":     unsigned,
		"garbage":      "not.a.token",
	} {
		if _, err := m.ValidateToken(token); err == nil {
			t.Errorf("%s: token accepted", name)
		}
	}
}

func TestService_Login(t *testing.T) {
	hash, err := HashPassword("op-pass")
	if err != nil {
		t.Fatal(err)
	}
	users := userMap{
		"op":      {Username: "op", PasswordHash: hash, Role: RoleOperator, Enabled: true},
		"off":     {Username: "off", PasswordHash: hash, Role: RoleOperator, Enabled: false},
		"oddrole": {Username: "oddrole", PasswordHash: hash, Role: "superuser", Enabled: true},
	}
	jm := newTestJWT(t)
	svc, err := NewService(testSecurityConfig(), jm, users)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	tests := []struct {
		user, pass string
		wantRole   string
		wantErr    error
	}{
		{"admin", "s3cret-pass", RoleAdmin, nil},
		{"admin", "wrong", "", ErrInvalidCredentials},
		{"op", "op-pass", RoleOperator, nil},
		{"op", "wrong", "", ErrInvalidCredentials},
		{"off", "op-pass", "", ErrUserDisabled},
		{"oddrole", "op-pass", RoleViewer, nil},
		{"ghost", "op-pass", "", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		resp, err := svc.Login(ctx, tt.user, tt.pass)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Login(%s) error = %v, want %v", tt.user, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("Login(%s) = %v", tt.user, err)
			continue
		}
		if resp.Role != tt.wantRole || resp.Username != tt.user {
			t.Errorf("Login(%s) = %+v", tt.user, resp)
		}
		if _, err := jm.ValidateToken(resp.Token); err != nil {
			t.Errorf("issued token invalid: %v", err)
		}
	}
}

func TestMiddleware_Authenticate(t *testing.T) {
	jm := newTestJWT(t)
	token, _, err := jm.GenerateToken("alice", RoleViewer)
	if err != nil {
		t.Fatal(err)
	}

	var got *Subject
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SubjectFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := NewMiddleware(config.AuthModeJWT, jm).Authenticate(next)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusNoContent},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: token}) }, http.StatusNoContent},
		{"query", func(r *http.Request) { r.URL.RawQuery = "token=" + token }, http.StatusNoContent},
		{"missing", func(*http.Request) {}, http.StatusUnauthorized},
		{"basic scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, http.StatusUnauthorized},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = nil
			req := httptest.NewRequest(http.MethodGet, "/api/sensor/history", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusNoContent && (got == nil || got.Username != "alice" || got.Role != RoleViewer) {
				t.Errorf("subject = %+v", got)
			}
		})
	}
}

func TestMiddleware_AuthDisabled(t *testing.T) {
	var got *Subject
	h := NewMiddleware(config.AuthModeNone, nil).Authenticate(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = SubjectFrom(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got == nil || got.Role != RoleAdmin || got.Username != AnonymousUsername {
		t.Errorf("subject = %+v", got)
	}
}
