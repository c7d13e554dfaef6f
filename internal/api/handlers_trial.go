// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/twinpulse/internal/models"
)

const trialDateLayout = "20060102"

// ListTrials pages trial runs
//
// @Summary Paged trial list
// @Tags Trials
// @Produce json
// @Security BearerAuth
// @Param name query string false "Name substring"
// @Param runNo query string false "Exact run number"
// @Param date query string false "Start day as yyyyMMdd"
// @Param page query int false "Page from 0" default(0)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} models.Envelope[models.TrialListResponse]
// @Failure 400 {object} models.Envelope[any]
// @Router /trial/list [get]
func (h *Handler) ListTrials(w http.ResponseWriter, r *http.Request) {
	page, size, err := pageParams(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	q := r.URL.Query()
	date := q.Get("date")
	if date != "" {
		if _, err := time.Parse(trialDateLayout, date); err != nil {
			respondError(w, r, http.StatusBadRequest, "date must be formatted as yyyyMMdd", nil)
			return
		}
	}

	list, err := h.Trials.List(r.Context(), models.TrialFilter{
		Name:  q.Get("name"),
		RunNo: q.Get("runNo"),
		Date:  date,
		Page:  page,
		Size:  size,
	})
	if err != nil {
		respondServiceError(w, r, err, "failed to list trials")
		return
	}
	respondOK(w, list)
}

// TrialCount counts every recorded trial.
func (h *Handler) TrialCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.Trials.Count(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "failed to count trials")
		return
	}
	respondOK(w, models.TrialCountResponse{TotalCount: n})
}

// TrialHistory returns the stored readings of a trial's published points.
func (h *Handler) TrialHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	history, err := h.Trials.History(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "failed to load trial history")
		return
	}
	if history == nil {
		history = []models.HistoryData{}
	}
	respondOK(w, history)
}

// StartReplay begins pushing a trial's history to /topic/history_data
//
// @Summary Start history replay
// @Description Returns the subscribe ID used to tune the replay rate
// @Tags Trials
// @Produce json
// @Security BearerAuth
// @Param id path int true "Trial ID"
// @Success 200 {object} models.Envelope[models.ReplayStarted]
// @Failure 404 {object} models.Envelope[any]
// @Router /trial/{id}/history_data [post]
func (h *Handler) StartReplay(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	subscribeID, err := h.Trials.StartReplay(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "failed to start replay")
		return
	}
	respondOK(w, models.ReplayStarted{SubscribeID: subscribeID})
}

// SetReplayRate changes the speed multiplier of a running replay.
func (h *Handler) SetReplayRate(w http.ResponseWriter, r *http.Request) {
	rate, err := strconv.ParseFloat(r.URL.Query().Get("rate"), 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "rate must be a number", nil)
		return
	}
	if err := h.Trials.SetRate(chi.URLParam(r, "subscribeId"), rate); err != nil {
		respondServiceError(w, r, err, "failed to set replay rate")
		return
	}
	respondMessage[any](w, "replay rate updated", nil)
}
