// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

/*
Package models defines the data structures shared by TwinPulse packages.

Key Components:

  - SensorData: one reading from a device. A handful of fields are fixed
    (ID, Timestamp, deviceName, deviceType, ts); every other top-level JSON
    field is a point and lands in SensorData.Points.
  - Envelope: the {code, message, timestamp, data} wrapper used for every
    WebSocket payload and most REST responses.
  - Alarm, AlarmOperateLog: alarm records raised by limit and state analysis.
  - Point, Device, FailureRecord: the point registry and EStop failure history.
  - Trial, HistoryData: test runs and their replayable history.
  - PresignRequest, PresignResponse, StorageServerInfo: the simulation file API.

Numbers inside Points are kept as json.Number so that rounding works on the
decimal text the device sent rather than on a binary float.
*/
package models
