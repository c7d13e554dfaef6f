// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/blockloop/scan/v2"

	"github.com/tomtom215/twinpulse/internal/models"
)

const pointColumns = `id, identity, name, path, unit, device_id, writeable, published, alarmable,
	state_alarm, upper_high_limit, upper_limit, lower_limit, lower_low_limit,
	last_collection_time, total_collection_count, total_collection_duration, created_at, updated_at`

// CreateDevice inserts a device and fills in its ID and CreatedAt.
func (db *DB) CreateDevice(ctx context.Context, d *models.Device) (err error) {
	start := time.Now()
	defer func() { observe("insert", "devices", start, err) }()

	d.CreatedAt = time.Now().UTC()
	err = db.conn.QueryRowContext(ctx,
		`INSERT INTO devices (name, description, created_at) VALUES (?, ?, ?) RETURNING id`,
		d.Name, d.Description, d.CreatedAt).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	return nil
}

// GetDevice returns one device or ErrDeviceNotFound.
func (db *DB) GetDevice(ctx context.Context, id int64) (*models.Device, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM devices WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query device: %w", err)
	}
	var d models.Device
	if err := scan.Row(&d, rows); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to scan device: %w", err)
	}
	return &d, nil
}

// ListDevices returns every device ordered by ID.
func (db *DB) ListDevices(ctx context.Context) ([]models.Device, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, description, created_at FROM devices ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	var devices []models.Device
	if err := scan.Rows(&devices, rows); err != nil {
		return nil, fmt.Errorf("failed to scan devices: %w", err)
	}
	return devices, nil
}

// DeviceNames maps device IDs to names.
func (db *DB) DeviceNames(ctx context.Context) (map[int64]string, error) {
	devices, err := db.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(devices))
	for _, d := range devices {
		names[d.ID] = d.Name
	}
	return names, nil
}

// CreatePoint inserts a point. The device must exist.
func (db *DB) CreatePoint(ctx context.Context, p *models.Point) (err error) {
	start := time.Now()
	defer func() { observe("insert", "points", start, err) }()

	if _, err = db.GetDevice(ctx, p.DeviceID); err != nil {
		return err
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	err = db.conn.QueryRowContext(ctx, `
		INSERT INTO points (identity, name, path, unit, device_id, writeable, published, alarmable,
			state_alarm, upper_high_limit, upper_limit, lower_limit, lower_low_limit,
			total_collection_count, total_collection_duration, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)
		RETURNING id`,
		p.Identity, p.Name, p.Path, p.Unit, p.DeviceID, p.Writeable, p.Published, p.Alarmable,
		p.StateAlarm, p.UpperHighLimit, p.UpperLimit, p.LowerLimit, p.LowerLowLimit,
		p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create point: %w", err)
	}
	return nil
}

// GetPoint returns one point or ErrPointNotFound.
func (db *DB) GetPoint(ctx context.Context, id int64) (*models.Point, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+pointColumns+` FROM points WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query point: %w", err)
	}
	var p models.Point
	if err := scan.Row(&p, rows); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPointNotFound
		}
		return nil, fmt.Errorf("failed to scan point: %w", err)
	}
	return &p, nil
}

// FindPoint returns the point with identity on device, or ErrPointNotFound.
func (db *DB) FindPoint(ctx context.Context, identity string, deviceID int64) (*models.Point, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+pointColumns+` FROM points WHERE identity = ? AND device_id = ? ORDER BY id LIMIT 1`,
		identity, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query point: %w", err)
	}
	var p models.Point
	if err := scan.Row(&p, rows); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPointNotFound
		}
		return nil, fmt.Errorf("failed to scan point: %w", err)
	}
	return &p, nil
}

// ListPoints returns every point ordered by ID.
func (db *DB) ListPoints(ctx context.Context) (points []models.Point, err error) {
	start := time.Now()
	defer func() { observe("select", "points", start, err) }()

	rows, err := db.conn.QueryContext(ctx, `SELECT `+pointColumns+` FROM points ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	if err = scan.Rows(&points, rows); err != nil {
		return nil, fmt.Errorf("failed to scan points: %w", err)
	}
	return points, nil
}

// UpdatePoint overwrites the editable fields of a point.
func (db *DB) UpdatePoint(ctx context.Context, p *models.Point) error {
	if _, err := db.GetDevice(ctx, p.DeviceID); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE points SET identity = ?, name = ?, path = ?, unit = ?, device_id = ?,
			writeable = ?, published = ?, alarmable = ?, state_alarm = ?,
			upper_high_limit = ?, upper_limit = ?, lower_limit = ?, lower_low_limit = ?,
			updated_at = ?
		WHERE id = ?`,
		p.Identity, p.Name, p.Path, p.Unit, p.DeviceID,
		p.Writeable, p.Published, p.Alarmable, p.StateAlarm,
		p.UpperHighLimit, p.UpperLimit, p.LowerLimit, p.LowerLowLimit,
		p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update point: %w", err)
	}
	return requireAffected(res, ErrPointNotFound)
}

// DeletePoint removes a point.
func (db *DB) DeletePoint(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM points WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete point: %w", err)
	}
	return requireAffected(res, ErrPointNotFound)
}

// UpdateCollectionStats marks the points as collected at now: the count is
// incremented and the duration becomes whole seconds since creation.
func (db *DB) UpdateCollectionStats(ctx context.Context, ids []int64, now time.Time) (err error) {
	if len(ids) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { observe("update", "points", start, err) }()

	now = now.UTC()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE points SET
			last_collection_time = ?,
			total_collection_count = total_collection_count + 1,
			total_collection_duration = date_diff('second', created_at, CAST(? AS TIMESTAMP))
		WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare collection stats update: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for _, id := range ids {
		if _, err = stmt.ExecContext(ctx, now, now, id); err != nil {
			return fmt.Errorf("failed to update collection stats of point %d: %w", id, err)
		}
	}
	return tx.Commit()
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
