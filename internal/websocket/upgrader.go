// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package websocket

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// NewUpgrader returns an upgrader that accepts the given origins. With no
// allowed origins every origin is accepted in dev mode; otherwise gorilla's
// same-origin check applies. "*" accepts every origin.
func NewUpgrader(allowedOrigins []string, devMode bool) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins, devMode),
	}
}

func originChecker(allowed []string, devMode bool) func(*http.Request) bool {
	if len(allowed) == 0 {
		if devMode {
			return func(*http.Request) bool { return true }
		}
		return nil
	}

	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.ToLower(strings.TrimRight(o, "/"))] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients do not send Origin.
			return true
		}
		return set[strings.ToLower(origin)]
	}
}
