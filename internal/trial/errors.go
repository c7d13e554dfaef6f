// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package trial

import (
	"errors"

	"github.com/tomtom215/twinpulse/internal/database"
)

var (
	// ErrTrialNotFound is returned for unknown trial IDs.
	ErrTrialNotFound = database.ErrTrialNotFound

	ErrReplayNotFound = errors.New("replay not found")
	ErrInvalidRate    = errors.New("replay rate must be positive")
	ErrServiceClosed  = errors.New("trial service closed")
)
