// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

// Package points owns the point registry and point management.
//
// Registry holds every registered point grouped by identity. It is loaded at
// startup, refreshed on an interval by a supervised service and after every
// write through Service. A failed refresh keeps the previous snapshot.
//
// Service wraps the database for point and device CRUD, collection
// statistics and EStop failure records.
package points
