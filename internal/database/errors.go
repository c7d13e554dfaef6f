// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package database

import (
	"errors"
	"io"

	"github.com/tomtom215/twinpulse/internal/logging"
)

var (
	ErrAlarmNotFound   = errors.New("alarm not found")
	ErrPointNotFound   = errors.New("point not found")
	ErrDeviceNotFound  = errors.New("device not found")
	ErrTrialNotFound   = errors.New("trial not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrFailureNotFound = errors.New("failure record not found")
	ErrUserExists      = errors.New("user already exists")
)

// closeWithLog closes a resource and logs any error
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
