// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

// Package trial tracks test runs and replays their recorded history.
//
// A reading with TestStart=true opens a trial; TestStart=false closes the
// most recent open one. The history of a trial is every stored value of every
// registered point between its start and end, merged by timestamp. Building it
// loads each point concurrently and the result is cached per trial.
//
// A replay pushes the history to /topic/history_data in real time scaled by a
// rate that can change while it runs, then a completion marker with timestamp
// -1.
package trial
