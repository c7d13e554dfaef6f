// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/models"
	"github.com/tomtom215/twinpulse/internal/validation"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// sanitizeLogValue strips characters that could forge log lines.
func sanitizeLogValue(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		return r
	}, s)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("Failed to write JSON response")
	}
}

// respondOK writes data in a success envelope.
func respondOK[T any](w http.ResponseWriter, data T) {
	respondJSON(w, http.StatusOK, models.Success(data))
}

// respondMessage writes data in a success envelope with a custom message.
func respondMessage[T any](w http.ResponseWriter, message string, data T) {
	respondJSON(w, http.StatusOK, models.SuccessMessage(message, data))
}

// respondError writes an error envelope whose code matches the HTTP status.
// err, when given, is logged but never sent to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		ev := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			ev = logging.Ctx(r.Context()).Error()
		}
		ev.Str("path", r.URL.Path).
			Int("status", status).
			Str("error", sanitizeLogValue(err.Error())).
			Msg(message)
	}
	respondJSON(w, status, models.FailureCode(status, message))
}

// respondValidation writes a 400 envelope with the failing fields as data.
func respondValidation(w http.ResponseWriter, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	respondJSON(w, http.StatusBadRequest, models.FailureWithData(http.StatusBadRequest, apiErr.Message, apiErr.Details))
}

// respondServiceError maps a service error onto a status. what names the
// failed action for the client, e.g. "failed to load alarm".
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, what string) {
	status := statusOf(err)
	msg := what
	if status != http.StatusInternalServerError {
		msg = err.Error()
	}
	respondError(w, r, status, msg, err)
}

func statusOf(err error) int {
	for _, m := range errorStatuses {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// decodeJSON reads a bounded JSON body into dst, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON request body", err)
		return false
	}
	return true
}

// decodeAndValidate is decodeJSON followed by struct validation.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !decodeJSON(w, r, dst) {
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		respondValidation(w, verr)
		return false
	}
	return true
}
