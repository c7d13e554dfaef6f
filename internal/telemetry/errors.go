// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package telemetry

import "errors"

var (
	ErrMissingDependency = errors.New("telemetry pipeline dependency missing")
	ErrNilReading        = errors.New("nil reading")
)
