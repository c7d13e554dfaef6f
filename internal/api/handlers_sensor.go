// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package api

import (
	"net/http"

	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/models"
)

const maxHistoryLimit = 1000

// SendSensorData normalises a reading and hands it to the broker
//
// @Summary Publish a sensor reading
// @Description Assigns an ID when missing, stamps the receive time and publishes the reading to the message queue
// @Tags Sensor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param reading body object true "Sensor reading; every field other than ID, Timestamp, deviceName, deviceType and ts is a point"
// @Success 200 {object} models.Envelope[models.SensorData]
// @Failure 400 {object} models.Envelope[any]
// @Failure 500 {object} models.Envelope[any]
// @Router /sensor/send [post]
func (h *Handler) SendSensorData(w http.ResponseWriter, r *http.Request) {
	if h.Sink == nil {
		respondError(w, r, http.StatusServiceUnavailable, "message queue unavailable", nil)
		return
	}

	var reading models.SensorData
	if !decodeJSON(w, r, &reading) {
		return
	}
	reading.Stamp(h.now())

	if err := h.Sink.Send(r.Context(), &reading); err != nil {
		respondError(w, r, http.StatusInternalServerError, "failed to send sensor data", err)
		return
	}

	logging.Ctx(r.Context()).Debug().Str("sensor_id", reading.ID).Int("points", len(reading.Points)).Msg("Sensor data sent to message queue")
	respondMessage(w, "sensor data sent to message queue", &reading)
}

// SensorHistory returns the newest readings, one per sensor ID
//
// @Summary Latest readings
// @Tags Sensor
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of readings (1-1000)" default(10)
// @Success 200 {object} models.Envelope[[]models.LatestReading]
// @Router /sensor/history [get]
func (h *Handler) SensorHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10, 1, maxHistoryLimit)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	readings, err := h.Readings.LatestReadings(r.Context(), limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "failed to load sensor history", err)
		return
	}
	if readings == nil {
		readings = []models.LatestReading{}
	}
	respondOK(w, readings)
}
