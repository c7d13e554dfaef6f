// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package api

import (
	"net/http"

	"github.com/tomtom215/twinpulse/internal/auth"
)

// WebSocket upgrades the connection and attaches it to the push hub. The
// client then subscribes to topics with JSON frames.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.Hub == nil || h.Upgrader == nil {
		respondServiceError(w, r, ErrServiceUnavailable, "")
		return
	}
	username := auth.AnonymousUsername
	if s := auth.SubjectFrom(r.Context()); s != nil {
		username = s.Username
	}
	h.Hub.ServeWS(h.Upgrader, w, r, username)
}
