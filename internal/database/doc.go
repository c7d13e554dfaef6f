// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

/*
Package database is the DuckDB store behind the gateway.

It holds the relational tables (devices, points, alarms and their operate
logs, point failure records, trials, users) next to the append-only
sensor_readings history that trial replay and GET /api/sensor/history read
from. Integer keys come from sequences; every method takes a context.

Rows are mapped onto models types with github.com/blockloop/scan/v2 through
their db struct tags. Filtered list queries are assembled with the query
subpackage.

Usage:

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	values, err := db.PointValues(ctx, "HeatFlux", trial.StartTimestamp, end)
*/
package database
