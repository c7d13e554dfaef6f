// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/blockloop/scan/v2"

	"github.com/tomtom215/twinpulse/internal/models"
)

// Reading is one persisted point value of a sensor reading.
type Reading struct {
	TS         int64  `db:"ts_ms"`
	PointKey   string `db:"point_key"`
	DeviceName string `db:"device_name"`
	Value      string `db:"point_value"`
	SensorID   string `db:"sensor_id"`
}

// InsertReadings stores the points of one reading in a single transaction.
func (db *DB) InsertReadings(ctx context.Context, readings []Reading) (err error) {
	if len(readings) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { observe("insert", "sensor_readings", start, err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sensor_readings (ts_ms, point_key, device_name, point_value, sensor_id) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare reading insert: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for _, r := range readings {
		if _, err = stmt.ExecContext(ctx, r.TS, r.PointKey, r.DeviceName, r.Value, r.SensorID); err != nil {
			return fmt.Errorf("failed to insert reading %s: %w", r.PointKey, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit readings: %w", err)
	}
	return nil
}

// PointValues returns the stored values of one point key with from <= ts <= to,
// oldest first.
func (db *DB) PointValues(ctx context.Context, pointKey string, from, to int64) (values []models.StoredValue, err error) {
	start := time.Now()
	defer func() { observe("select", "sensor_readings", start, err) }()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT ts_ms, point_value FROM sensor_readings
		 WHERE point_key = ? AND ts_ms >= ? AND ts_ms <= ?
		 ORDER BY ts_ms`, pointKey, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query point values: %w", err)
	}
	if err = scan.Rows(&values, rows); err != nil {
		return nil, fmt.Errorf("failed to scan point values: %w", err)
	}
	return values, nil
}

// LatestReadings rebuilds the newest limit readings, one per sensor ID,
// newest first.
func (db *DB) LatestReadings(ctx context.Context, limit int) (out []models.LatestReading, err error) {
	start := time.Now()
	defer func() { observe("select", "sensor_readings", start, err) }()

	rows, err := db.conn.QueryContext(ctx, `
		WITH latest AS (
			SELECT sensor_id, max(ts_ms) AS ts_ms
			FROM sensor_readings
			WHERE sensor_id <> ''
			GROUP BY sensor_id
			ORDER BY ts_ms DESC
			LIMIT ?
		)
		SELECT r.ts_ms, r.point_key, r.device_name, r.point_value, r.sensor_id
		FROM sensor_readings r
		JOIN latest l ON r.sensor_id = l.sensor_id AND r.ts_ms = l.ts_ms
		ORDER BY r.ts_ms DESC, r.sensor_id`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest readings: %w", err)
	}
	var flat []Reading
	if err = scan.Rows(&flat, rows); err != nil {
		return nil, fmt.Errorf("failed to scan latest readings: %w", err)
	}

	index := make(map[string]int)
	for _, r := range flat {
		i, ok := index[r.SensorID]
		if !ok {
			i = len(out)
			index[r.SensorID] = i
			out = append(out, models.LatestReading{
				SensorID:  r.SensorID,
				Timestamp: r.TS,
				Points:    make(map[string]string),
			})
		}
		if out[i].DeviceName == "" {
			out[i].DeviceName = r.DeviceName
		}
		out[i].Points[r.PointKey] = r.Value
	}
	return out, nil
}
