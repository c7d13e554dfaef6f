// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package models

// Service identity reported by the health endpoint.
const (
	ServiceName    = "digital-twin-websocket-server"
	ServiceVersion = "1.0.0"
)

// HealthInfo answers GET /api/health.
type HealthInfo struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	Version   string `json:"version"`
}

// WebSocketInfo answers GET /api/health/websocket.
type WebSocketInfo struct {
	Endpoint string `json:"endpoint"`
	Topic    string `json:"topic"`
	Status   string `json:"status"`
	Clients  int    `json:"clients"`
}

// SubjectInfo answers GET /api/auth/me.
type SubjectInfo struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}
