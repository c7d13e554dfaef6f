// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package authz

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/twinpulse/internal/auth"
	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/models"
)

// Middleware provides authorization middleware using Casbin.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware creates a new authorization middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// RequirePermission answers 403 unless the authenticated subject's role
// holds perm. It must run after auth.Middleware.Authenticate.
func (m *Middleware) RequirePermission(perm Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := auth.SubjectFrom(r.Context())
			if subject == nil {
				deny(w, http.StatusForbidden, "Forbidden: no authentication context")
				return
			}

			allowed, err := m.enforcer.Allowed(subject.Role, perm)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Str("permission", string(perm)).Msg("Authorization error")
				deny(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !allowed {
				logging.Ctx(r.Context()).Debug().
					Str("username", subject.Username).
					Str("role", subject.Role).
					Str("permission", string(perm)).
					Msg("Permission denied")
				deny(w, http.StatusForbidden, "Forbidden: insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.FailureCode(status, msg))
}
