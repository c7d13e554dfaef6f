// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package api

import (
	"net/http"

	"github.com/tomtom215/twinpulse/internal/database"
	"github.com/tomtom215/twinpulse/internal/models"
)

// ListDevices returns every registered device.
func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.Points.ListDevices(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "failed to list devices")
		return
	}
	if devices == nil {
		devices = []models.Device{}
	}
	respondOK(w, devices)
}

// CreateDevice registers a device
//
// @Summary Create device
// @Tags Points
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param device body models.Device true "Device"
// @Success 201 {object} models.Envelope[models.Device]
// @Failure 400 {object} models.Envelope[any]
// @Router /devices [post]
func (h *Handler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var d models.Device
	if !decodeAndValidate(w, r, &d) {
		return
	}
	d.ID = 0
	if err := h.Points.CreateDevice(r.Context(), &d); err != nil {
		respondServiceError(w, r, err, "failed to create device")
		return
	}
	respondJSON(w, http.StatusCreated, models.Success(d))
}

// ListPoints returns every point definition.
func (h *Handler) ListPoints(w http.ResponseWriter, r *http.Request) {
	points, err := h.Points.List(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "failed to list points")
		return
	}
	if points == nil {
		points = []models.Point{}
	}
	respondOK(w, points)
}

// GetPoint returns one point definition.
func (h *Handler) GetPoint(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "pointId")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	p, err := h.Points.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "failed to load point")
		return
	}
	respondOK(w, p)
}

// CreatePoint defines a point and refreshes the point registry
//
// @Summary Create point
// @Tags Points
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param point body models.PointRequest true "Point definition"
// @Success 201 {object} models.Envelope[models.Point]
// @Failure 400 {object} models.Envelope[any]
// @Failure 404 {object} models.Envelope[any]
// @Router /points [post]
func (h *Handler) CreatePoint(w http.ResponseWriter, r *http.Request) {
	var req models.PointRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p, err := h.Points.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err, "failed to create point")
		return
	}
	respondJSON(w, http.StatusCreated, models.Success(p))
}

// UpdatePoint replaces a point definition.
func (h *Handler) UpdatePoint(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "pointId")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	var req models.PointRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p, err := h.Points.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, r, err, "failed to update point")
		return
	}
	respondOK(w, p)
}

// DeletePoint removes a point definition.
func (h *Handler) DeletePoint(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "pointId")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := h.Points.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, err, "failed to delete point")
		return
	}
	respondMessage[any](w, "point deleted", nil)
}

// ListFailures pages point failure records, newest first.
func (h *Handler) ListFailures(w http.ResponseWriter, r *http.Request) {
	page, size, err := pageParams(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	pointID, err := queryInt64Ptr(r, "pointId")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	records, total, err := h.Points.ListFailures(r.Context(), database.FailureFilter{
		PointID:    pointID,
		ActiveOnly: queryBool(r, "activeOnly"),
		Page:       page,
		Size:       size,
	})
	if err != nil {
		respondServiceError(w, r, err, "failed to list failure records")
		return
	}
	if records == nil {
		records = []models.FailureRecord{}
	}
	respondOK(w, models.FailureListResponse{TotalCount: total, Records: records})
}
