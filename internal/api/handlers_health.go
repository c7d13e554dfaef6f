// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package api

import (
	"net/http"

	"github.com/tomtom215/twinpulse/internal/eventprocessor"
	"github.com/tomtom215/twinpulse/internal/models"
	ws "github.com/tomtom215/twinpulse/internal/websocket"
)

// Health handles liveness requests
//
// @Summary Service liveness
// @Description Always UP while the process serves HTTP
// @Tags Health
// @Produce json
// @Success 200 {object} models.Envelope[models.HealthInfo]
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondOK(w, models.HealthInfo{
		Status:    "UP",
		Timestamp: h.now().Format(models.EnvelopeTimeLayout),
		Service:   models.ServiceName,
		Version:   models.ServiceVersion,
	})
}

// WebSocketHealth reports the push endpoint and its connected clients.
//
// @Summary WebSocket endpoint status
// @Tags Health
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope[models.WebSocketInfo]
// @Router /health/websocket [get]
func (h *Handler) WebSocketHealth(w http.ResponseWriter, _ *http.Request) {
	info := models.WebSocketInfo{
		Endpoint: "/ws",
		Topic:    ws.TopicSensorData,
		Status:   "enabled",
	}
	if h.Hub == nil {
		info.Status = "disabled"
	} else {
		info.Clients = h.Hub.GetClientCount()
	}
	respondOK(w, info)
}

// Ready runs every registered component check and answers 503 when any
// component is unhealthy.
//
// @Summary Component readiness
// @Tags Health
// @Produce json
// @Success 200 {object} models.Envelope[eventprocessor.OverallHealth]
// @Failure 503 {object} models.Envelope[eventprocessor.OverallHealth]
// @Router /health/ready [get]
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.Readiness == nil {
		respondOK(w, eventprocessor.OverallHealth{Healthy: true, Status: eventprocessor.HealthStatusHealthy, Timestamp: h.now()})
		return
	}
	overall := h.Readiness.CheckAll(r.Context())
	if !overall.Healthy {
		respondJSON(w, http.StatusServiceUnavailable, models.FailureWithData(http.StatusServiceUnavailable, "not ready", overall))
		return
	}
	respondOK(w, overall)
}
