// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/twinpulse/internal/auth"
	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/models"
)

// Login handles user authentication requests
//
// @Summary Authenticate user
// @Description Checks username and password and returns a JWT, also set as the token cookie
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.Envelope[models.LoginResponse]
// @Failure 400 {object} models.Envelope[any]
// @Failure 401 {object} models.Envelope[any]
// @Failure 403 {object} models.Envelope[any]
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.Logins == nil {
		respondError(w, r, http.StatusForbidden, "authentication is disabled", nil)
		return
	}

	var req models.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.Logins.Login(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUserDisabled):
		logging.Ctx(r.Context()).Info().Str("username", sanitizeLogValue(req.Username)).Msg("Login rejected")
		respondError(w, r, http.StatusUnauthorized, "invalid username or password", nil)
		return
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, "login failed", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    resp.Token,
		Path:     "/",
		Expires:  resp.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteStrictMode,
	})
	respondOK(w, resp)
}

// Me returns the authenticated subject and the permissions of its role.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFrom(r.Context())
	if subject == nil {
		respondError(w, r, http.StatusUnauthorized, "not authenticated", nil)
		return
	}
	info := models.SubjectInfo{Username: subject.Username, Role: subject.Role, Permissions: []string{}}
	if h.Permissions != nil {
		for _, p := range h.Permissions.Permissions(subject.Role) {
			info.Permissions = append(info.Permissions, string(p))
		}
	}
	respondOK(w, info)
}
