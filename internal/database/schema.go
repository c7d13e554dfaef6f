// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext bounds schema creation.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// Sequences back the integer primary keys.
var sequenceQueries = []string{
	`CREATE SEQUENCE IF NOT EXISTS devices_id_seq START 1`,
	`CREATE SEQUENCE IF NOT EXISTS points_id_seq START 1`,
	`CREATE SEQUENCE IF NOT EXISTS alarms_id_seq START 1`,
	`CREATE SEQUENCE IF NOT EXISTS alarm_operate_logs_id_seq START 1`,
	`CREATE SEQUENCE IF NOT EXISTS point_failure_records_id_seq START 1`,
	`CREATE SEQUENCE IF NOT EXISTS trials_id_seq START 1`,
	`CREATE SEQUENCE IF NOT EXISTS users_id_seq START 1`,
}

var tableQueries = []string{
	`CREATE TABLE IF NOT EXISTS devices (
		id BIGINT PRIMARY KEY DEFAULT nextval('devices_id_seq'),
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS points (
		id BIGINT PRIMARY KEY DEFAULT nextval('points_id_seq'),
		identity TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		path TEXT NOT NULL DEFAULT '',
		unit TEXT NOT NULL DEFAULT '',
		device_id BIGINT NOT NULL,
		writeable BOOLEAN NOT NULL DEFAULT false,
		published BOOLEAN NOT NULL DEFAULT false,
		alarmable BOOLEAN NOT NULL DEFAULT false,
		state_alarm BOOLEAN,
		upper_high_limit DOUBLE,
		upper_limit DOUBLE,
		lower_limit DOUBLE,
		lower_low_limit DOUBLE,
		last_collection_time TIMESTAMP,
		total_collection_count BIGINT NOT NULL DEFAULT 0,
		total_collection_duration BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	// Append-only point history. ts_ms is the reading's real timestamp.
	`CREATE TABLE IF NOT EXISTS sensor_readings (
		ts_ms BIGINT NOT NULL,
		point_key TEXT NOT NULL,
		device_name TEXT NOT NULL DEFAULT '',
		point_value TEXT NOT NULL DEFAULT '',
		sensor_id TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS alarms (
		id BIGINT PRIMARY KEY DEFAULT nextval('alarms_id_seq'),
		"timestamp" BIGINT NOT NULL,
		sensor_id TEXT NOT NULL DEFAULT '',
		sensor_timestamp BIGINT NOT NULL,
		point_id TEXT NOT NULL,
		point_value TEXT NOT NULL DEFAULT '',
		alarm_type TEXT NOT NULL,
		alarm_threshold TEXT NOT NULL DEFAULT '',
		device_id BIGINT NOT NULL,
		last_sensor_timestamp BIGINT NOT NULL,
		end_timestamp BIGINT,
		state TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS alarm_operate_logs (
		id BIGINT PRIMARY KEY DEFAULT nextval('alarm_operate_logs_id_seq'),
		alarm_id BIGINT NOT NULL,
		operate_action TEXT NOT NULL,
		operate_time TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS point_failure_records (
		id BIGINT PRIMARY KEY DEFAULT nextval('point_failure_records_id_seq'),
		point_id BIGINT NOT NULL,
		failure_time TIMESTAMP NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		value TEXT NOT NULL DEFAULT '',
		resolved_at TIMESTAMP,
		resolve_description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS trials (
		id BIGINT PRIMARY KEY DEFAULT nextval('trials_id_seq'),
		name TEXT NOT NULL,
		run_no TEXT NOT NULL DEFAULT '',
		mode TEXT NOT NULL DEFAULT '',
		start_timestamp BIGINT NOT NULL,
		end_timestamp BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY DEFAULT nextval('users_id_seq'),
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMP NOT NULL
	)`,
}

func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, q := range append(append([]string{}, sequenceQueries...), tableQueries...) {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
