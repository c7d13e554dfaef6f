// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package alarm

import (
	"errors"

	"github.com/tomtom215/twinpulse/internal/database"
)

var (
	// ErrAlarmNotFound is returned for unknown alarm IDs.
	ErrAlarmNotFound = database.ErrAlarmNotFound

	ErrInvalidTimeRange  = errors.New("invalid time range")
	ErrAnalyzerRunning   = errors.New("alarm analyzer already running")
	ErrAnalyzerNotActive = errors.New("alarm analyzer not running")
)
