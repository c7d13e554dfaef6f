// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/twinpulse/internal/alarm"
	"github.com/tomtom215/twinpulse/internal/database"
	"github.com/tomtom215/twinpulse/internal/objectstore"
	"github.com/tomtom215/twinpulse/internal/trial"
)

var (
	// ErrServiceUnavailable is returned when an optional subsystem is off.
	ErrServiceUnavailable = errors.New("service unavailable")

	errInvalidParam = errors.New("invalid parameter")
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{database.ErrAlarmNotFound, http.StatusNotFound},
	{database.ErrPointNotFound, http.StatusNotFound},
	{database.ErrDeviceNotFound, http.StatusNotFound},
	{database.ErrTrialNotFound, http.StatusNotFound},
	{database.ErrFailureNotFound, http.StatusNotFound},
	{trial.ErrReplayNotFound, http.StatusNotFound},
	{database.ErrUserExists, http.StatusConflict},
	{alarm.ErrInvalidTimeRange, http.StatusBadRequest},
	{trial.ErrInvalidRate, http.StatusBadRequest},
	{errInvalidParam, http.StatusBadRequest},
	{objectstore.ErrInvalidOperation, http.StatusBadRequest},
	{objectstore.ErrStorageDisabled, http.StatusServiceUnavailable},
	{trial.ErrServiceClosed, http.StatusServiceUnavailable},
	{ErrServiceUnavailable, http.StatusServiceUnavailable},
}
