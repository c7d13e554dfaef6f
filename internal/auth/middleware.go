// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/twinpulse/internal/config"
	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/models"
)

// TokenCookie is the cookie checked when no Authorization header is sent.
const TokenCookie = "token"

// Middleware authenticates requests.
type Middleware struct {
	authMode   string
	jwtManager *JWTManager
}

// NewMiddleware returns the authentication middleware for mode. jwtManager
// may be nil only when mode is none.
func NewMiddleware(mode string, jwtManager *JWTManager) *Middleware {
	return &Middleware{authMode: mode, jwtManager: jwtManager}
}

// Authenticate puts the caller's Subject into the request context or
// answers 401. With AUTH_MODE=none every request runs as Anonymous.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == config.AuthModeNone {
			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), Anonymous())))
			return
		}

		token, err := extractToken(r)
		if err != nil {
			unauthorized(w, err.Error())
			return
		}
		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Token validation failed")
			unauthorized(w, "invalid token")
			return
		}

		role := claims.Role
		if !ValidRole(role) {
			role = RoleViewer
		}
		ctx := WithSubject(r.Context(), &Subject{Username: claims.Username, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken reads the bearer token from the Authorization header, the
// token cookie, or the token query parameter. The query form exists for
// browser WebSocket clients, which cannot set headers.
func extractToken(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", errInvalidHeader
		}
		return parts[1], nil
	}
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}
	if t := r.URL.Query().Get("token"); t != "" {
		return t, nil
	}
	return "", ErrNoCredentials
}

var errInvalidHeader = errors.New("invalid authorization header")

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="twinpulse"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(models.FailureCode(http.StatusUnauthorized, "Unauthorized: "+msg))
}
