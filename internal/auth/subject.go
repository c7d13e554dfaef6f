// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package auth

import (
	"context"
	"errors"
)

// Roles known to the permission policy.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

// AnonymousUsername is the subject injected when authentication is off.
const AnonymousUsername = "anonymous"

// Standard authentication errors
var (
	// ErrNoCredentials indicates no credentials were provided.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials indicates credentials were invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserDisabled indicates a stored user that may not log in.
	ErrUserDisabled = errors.New("user is disabled")
)

// ValidRole reports whether role is one of the policy roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleOperator, RoleViewer:
		return true
	}
	return false
}

// Subject is the authenticated caller of a request.
type Subject struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type contextKey string

const subjectContextKey contextKey = "auth-subject"

// WithSubject returns a context carrying s.
func WithSubject(ctx context.Context, s *Subject) context.Context {
	return context.WithValue(ctx, subjectContextKey, s)
}

// SubjectFrom returns the subject stored by the authentication middleware,
// or nil.
func SubjectFrom(ctx context.Context) *Subject {
	s, _ := ctx.Value(subjectContextKey).(*Subject)
	return s
}

// Anonymous is the subject used with AUTH_MODE=none.
func Anonymous() *Subject {
	return &Subject{Username: AnonymousUsername, Role: RoleAdmin}
}
