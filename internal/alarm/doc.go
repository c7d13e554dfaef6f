// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

/*
Package alarm raises and clears alarms from sensor readings and serves the
alarm queries of the REST API.

# Analysis

For each point value of a reading, every registered point with that identity
that is alarmable is checked:

  - a boolean value equal to the point's stateAlarm raises 状态告警, any other
    boolean ends it
  - a numeric value is checked against upperHighLimit, upperLimit,
    lowerLowLimit and lowerLimit independently; each breach raises its own
    type, and when nothing is breached all four limit types end
  - strings and objects are not analysed

Raising first refreshes lastSensorTimestamp on unended alarms of the same
identity and type. Only when there are none is a new alarm created, and only
if no alarm for the identity was raised within the duplicate window. A new
alarm is pushed to /topic/alarm-data.

# Ordering

Submit splits a reading into point entries and queues each on a worker chosen
by hashing the point identity. Entries for one identity are therefore
analysed in the order readings arrived, while different identities proceed in
parallel.

# Queries

Service lists, counts and pages alarms, builds alarm details, and records
operator acknowledgements in the operate log.
*/
package alarm
