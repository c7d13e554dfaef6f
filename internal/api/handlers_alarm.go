// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/twinpulse/internal/alarm"
	"github.com/tomtom215/twinpulse/internal/models"
)

func (h *Handler) respondAlarms(w http.ResponseWriter, r *http.Request, alarms []models.Alarm, err error) {
	if err != nil {
		respondServiceError(w, r, err, "failed to load alarms")
		return
	}
	if alarms == nil {
		alarms = []models.Alarm{}
	}
	respondOK(w, alarms)
}

// AllAlarms lists every alarm, newest first
//
// @Summary All alarms
// @Tags Alarms
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope[[]models.Alarm]
// @Router /alarms/all [get]
func (h *Handler) AllAlarms(w http.ResponseWriter, r *http.Request) {
	alarms, err := h.Alarms.All(r.Context())
	h.respondAlarms(w, r, alarms, err)
}

// AlarmsByDevice lists the alarms of one device.
func (h *Handler) AlarmsByDevice(w http.ResponseWriter, r *http.Request) {
	deviceID, err := pathInt64(r, "deviceId")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	alarms, err := h.Alarms.ByDevice(r.Context(), deviceID)
	h.respondAlarms(w, r, alarms, err)
}

// AlarmsByPoint lists the alarms of one point identity.
func (h *Handler) AlarmsByPoint(w http.ResponseWriter, r *http.Request) {
	alarms, err := h.Alarms.ByPoint(r.Context(), chi.URLParam(r, "pointId"))
	h.respondAlarms(w, r, alarms, err)
}

// AlarmsBySensor lists the alarms raised by one reading ID.
func (h *Handler) AlarmsBySensor(w http.ResponseWriter, r *http.Request) {
	alarms, err := h.Alarms.BySensor(r.Context(), chi.URLParam(r, "sensorId"))
	h.respondAlarms(w, r, alarms, err)
}

func stateParam(r *http.Request) (models.AlarmState, bool) {
	state := models.AlarmState(strings.ToUpper(chi.URLParam(r, "state")))
	return state, state.Valid()
}

// AlarmsByState lists the alarms in one state, optionally of one device.
func (h *Handler) AlarmsByState(w http.ResponseWriter, r *http.Request) {
	state, ok := stateParam(r)
	if !ok {
		respondError(w, r, http.StatusBadRequest, "state must be UNCONFIRMED, CONFIRMED or IGNORED", nil)
		return
	}

	var deviceID *int64
	if chi.URLParam(r, "deviceId") != "" {
		id, err := pathInt64(r, "deviceId")
		if err != nil {
			respondError(w, r, http.StatusBadRequest, err.Error(), nil)
			return
		}
		deviceID = &id
	}
	alarms, err := h.Alarms.ByState(r.Context(), state, deviceID)
	h.respondAlarms(w, r, alarms, err)
}

// AlarmCount counts alarms, all of them or those of a time range
//
// @Summary Alarm count
// @Tags Alarms
// @Produce json
// @Security BearerAuth
// @Param timeRange query string false "today, week, month, year (or 今日, 本周, 本月, 全年)"
// @Success 200 {object} models.Envelope[models.AlarmCountResponse]
// @Failure 400 {object} models.Envelope[any]
// @Router /alarms/count [get]
func (h *Handler) AlarmCount(w http.ResponseWriter, r *http.Request) {
	var (
		count int64
		err   error
	)
	if timeRange := r.URL.Query().Get("timeRange"); timeRange != "" {
		count, err = h.Alarms.CountInRange(r.Context(), timeRange)
	} else {
		count, err = h.Alarms.Count(r.Context())
	}
	if err != nil {
		respondServiceError(w, r, err, "failed to count alarms")
		return
	}
	respondOK(w, models.AlarmCountResponse{TotalCount: count})
}

// AlarmList returns one page of alarms with device and point names
//
// @Summary Paged alarm list
// @Tags Alarms
// @Produce json
// @Security BearerAuth
// @Param timeRange query string false "Time range"
// @Param deviceId query int false "Device ID, takes precedence over timeRange"
// @Param page query int false "Page from 0" default(0)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} models.Envelope[models.AlarmListResponse]
// @Router /alarms/list [get]
func (h *Handler) AlarmList(w http.ResponseWriter, r *http.Request) {
	page, size, err := pageParams(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	deviceID, err := queryInt64Ptr(r, "deviceId")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	list, err := h.Alarms.List(r.Context(), alarm.ListQuery{
		DeviceID:  deviceID,
		TimeRange: r.URL.Query().Get("timeRange"),
		Page:      page,
		Size:      size,
	})
	if err != nil {
		respondServiceError(w, r, err, "failed to list alarms")
		return
	}
	respondOK(w, list)
}

// AlarmDetail returns an alarm joined with its point and device; with
// needOperateLog=true the operate log is included.
func (h *Handler) AlarmDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "alarmId")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	limit, err := queryInt(r, "operateLogLimit", 0, 0, maxPageSize)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	detail, err := h.Alarms.Detail(r.Context(), id, queryBool(r, "needOperateLog"), limit)
	if err != nil {
		respondServiceError(w, r, err, "failed to load alarm detail")
		return
	}
	respondOK(w, detail)
}

// LatestAlarmByDevice returns the newest alarm of a device.
func (h *Handler) LatestAlarmByDevice(w http.ResponseWriter, r *http.Request) {
	deviceID, err := pathInt64(r, "deviceId")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	detail, err := h.Alarms.LatestByDevice(r.Context(), deviceID)
	if err != nil {
		respondServiceError(w, r, err, "failed to load alarm detail")
		return
	}
	respondOK(w, detail)
}

// AckAlarm confirms an alarm
//
// @Summary Acknowledge alarm
// @Tags Alarms
// @Produce json
// @Security BearerAuth
// @Param alarmId path int true "Alarm ID"
// @Success 200 {object} models.Envelope[any]
// @Failure 404 {object} models.Envelope[any]
// @Router /alarms/{alarmId}/ack [post]
func (h *Handler) AckAlarm(w http.ResponseWriter, r *http.Request) {
	h.operateAlarm(w, r, h.Alarms.Ack, "alarm confirmed")
}

// IgnoreAlarm marks an alarm ignored.
func (h *Handler) IgnoreAlarm(w http.ResponseWriter, r *http.Request) {
	h.operateAlarm(w, r, h.Alarms.Ignore, "alarm ignored")
}

func (h *Handler) operateAlarm(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) error, done string) {
	id, err := pathInt64(r, "alarmId")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := op(r.Context(), id); err != nil {
		respondServiceError(w, r, err, "failed to update alarm")
		return
	}
	respondMessage[any](w, done, nil)
}
