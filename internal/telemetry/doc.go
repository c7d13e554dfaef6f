// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

/*
Package telemetry is the consumer side of sensor ingest.

The broker router hands every decoded reading to Pipeline.Process, one at a
time and in stream order. For a reading that carries both HeatFlux and
CoolingWater_In_Temp the pipeline:

 1. rounds numeric point values to two decimals, half away from zero
 2. opens or resolves an EStop failure record
 3. pushes the test phase indicator when TestPhase is a known phase
 4. assigns an ID when missing and stamps the receive time
 5. stores every point value under the reading's real timestamp
 6. opens or closes a trial from TestStart
 7. updates collection statistics of the registered points present
 8. queues the reading for alarm analysis
 9. pushes the published subset to /topic/sensor-data

Steps 2 and 5 to 8 are isolated from each other: a failure is logged and
counted under sensor_pipeline_errors_total and the next step still runs.
*/
package telemetry
