// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

// Package query provides SQL query building utilities for the database package.
//
// The WhereBuilder assembles parameterized WHERE clauses for the filtered
// list endpoints (trials, alarms):
//
//	wb := query.NewWhereBuilder()
//	wb.AddContains("name", "furnace")
//	wb.AddEquals("run_no", "R-7")
//	whereClause, args := wb.Build()
//	// Result: "contains(lower(name), lower(?)) AND run_no = ?"
//	// Args: ["furnace", "R-7"]
//
// Every method uses ? placeholders; values are never concatenated into SQL.
// Column names passed to the builder must be constants.
//
// WhereBuilder instances are not thread-safe. Create a new instance per query.
package query
