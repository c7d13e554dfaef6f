// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

/*
Package auth provides authentication for the HTTP API and the WebSocket
endpoint.

Authentication Modes (AUTH_MODE):

  - jwt: POST /api/auth/login exchanges a username and password for an HS256
    token carrying username and role claims. The configured admin account is
    checked first against a bcrypt hash computed at startup, then users
    stored in the database.
  - none: every request runs as an anonymous admin. Meant for local
    development only; config validation rejects it in production.

Token Lookup:

Middleware.Authenticate reads the token from, in order, the Authorization
header (Bearer scheme), the token cookie, and the token query parameter.

Usage Example:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
	    return err
	}
	svc, err := auth.NewService(&cfg.Security, jwtManager, db)
	if err != nil {
	    return err
	}
	mw := auth.NewMiddleware(cfg.Security.AuthMode, jwtManager)
	r.With(mw.Authenticate).Get("/api/sensor/history", h.SensorHistory)

Permission checks on top of the Subject live in package authz.
*/
package auth
