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
	"strings"
	"time"

	"github.com/blockloop/scan/v2"

	"github.com/tomtom215/twinpulse/internal/database/query"
	"github.com/tomtom215/twinpulse/internal/models"
)

const alarmColumns = `id, "timestamp", sensor_id, sensor_timestamp, point_id, point_value, alarm_type,
	alarm_threshold, device_id, last_sensor_timestamp, end_timestamp, state, created_at`

// UnknownDevicePrefix names alarms whose device no longer exists.
const UnknownDevicePrefix = "未知设备-"

// AlarmFilter narrows alarm queries. Zero fields are ignored. From and To
// bound the alarm timestamp as [From, To).
type AlarmFilter struct {
	DeviceID *int64
	PointID  string
	SensorID string
	State    models.AlarmState
	From     *int64
	To       *int64
}

func (f AlarmFilter) where(alias string) (string, []any) {
	col := func(name string) string {
		if alias == "" {
			return name
		}
		return alias + "." + name
	}
	return query.NewWhereBuilder().
		AddInt64(col("device_id"), f.DeviceID).
		AddEquals(col("point_id"), f.PointID).
		AddEquals(col("sensor_id"), f.SensorID).
		AddEquals(col("state"), string(f.State)).
		AddRange(col(`"timestamp"`), f.From, f.To).
		Build()
}

// InsertAlarm stores a new alarm and fills in its ID.
func (db *DB) InsertAlarm(ctx context.Context, a *models.Alarm) (err error) {
	start := time.Now()
	defer func() { observe("insert", "alarms", start, err) }()

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.UnixMilli(a.Timestamp)
	}
	a.CreatedAt = a.CreatedAt.UTC()
	err = db.conn.QueryRowContext(ctx, `
		INSERT INTO alarms ("timestamp", sensor_id, sensor_timestamp, point_id, point_value, alarm_type,
			alarm_threshold, device_id, last_sensor_timestamp, end_timestamp, state, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		a.Timestamp, a.SensorID, a.SensorTimestamp, a.PointID, a.PointValue, a.AlarmType,
		a.AlarmThreshold, a.DeviceID, a.LastSensorTimestamp, a.EndTimestamp, string(a.State), a.CreatedAt).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to insert alarm: %w", err)
	}
	return nil
}

// CountRecentAlarms counts alarms on a point identity raised at or after since
// (unix ms), ended or not.
func (db *DB) CountRecentAlarms(ctx context.Context, pointID string, since int64) (int64, error) {
	var n int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM alarms WHERE point_id = ? AND "timestamp" >= ?`, pointID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent alarms: %w", err)
	}
	return n, nil
}

// UnendedAlarms returns the open alarms of a point identity with one of the
// given types, newest first. An end timestamp of zero counts as open.
func (db *DB) UnendedAlarms(ctx context.Context, pointID string, alarmTypes ...string) (alarms []models.Alarm, err error) {
	start := time.Now()
	defer func() { observe("select", "alarms", start, err) }()

	where, args := query.NewWhereBuilder().
		AddEquals("point_id", pointID).
		AddIn("alarm_type", alarmTypes).
		AddClause("(end_timestamp IS NULL OR end_timestamp = 0)").
		Build()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+alarmColumns+` FROM alarms WHERE `+where+` ORDER BY "timestamp" DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query unended alarms: %w", err)
	}
	if err = scan.Rows(&alarms, rows); err != nil {
		return nil, fmt.Errorf("failed to scan alarms: %w", err)
	}
	return alarms, nil
}

// TouchAlarms sets last_sensor_timestamp on the given alarms.
func (db *DB) TouchAlarms(ctx context.Context, ids []int64, lastSensorTimestamp int64) error {
	return db.updateAlarmColumn(ctx, "last_sensor_timestamp", lastSensorTimestamp, ids)
}

// EndAlarms sets end_timestamp on the given alarms.
func (db *DB) EndAlarms(ctx context.Context, ids []int64, endTimestamp int64) error {
	return db.updateAlarmColumn(ctx, "end_timestamp", endTimestamp, ids)
}

// updateAlarmColumn sets one integer column; column is always a constant.
func (db *DB) updateAlarmColumn(ctx context.Context, column string, value int64, ids []int64) (err error) {
	if len(ids) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { observe("update", "alarms", start, err) }()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, 0, len(ids)+1)
	args = append(args, value)
	for _, id := range ids {
		args = append(args, id)
	}
	if _, err = db.conn.ExecContext(ctx,
		fmt.Sprintf(`UPDATE alarms SET %s = ? WHERE id IN (%s)`, column, placeholders), args...); err != nil {
		return fmt.Errorf("failed to update alarms: %w", err)
	}
	return nil
}

// GetAlarm returns one alarm or ErrAlarmNotFound.
func (db *DB) GetAlarm(ctx context.Context, id int64) (*models.Alarm, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+alarmColumns+` FROM alarms WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query alarm: %w", err)
	}
	return scanOneAlarm(rows)
}

// LatestAlarmByDevice returns the newest alarm of a device or ErrAlarmNotFound.
func (db *DB) LatestAlarmByDevice(ctx context.Context, deviceID int64) (*models.Alarm, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+alarmColumns+` FROM alarms WHERE device_id = ? ORDER BY "timestamp" DESC, id DESC LIMIT 1`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest alarm: %w", err)
	}
	return scanOneAlarm(rows)
}

func scanOneAlarm(rows *sql.Rows) (*models.Alarm, error) {
	var a models.Alarm
	if err := scan.Row(&a, rows); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlarmNotFound
		}
		return nil, fmt.Errorf("failed to scan alarm: %w", err)
	}
	return &a, nil
}

// ListAlarms returns the matching alarms, newest first.
func (db *DB) ListAlarms(ctx context.Context, f AlarmFilter) (alarms []models.Alarm, err error) {
	start := time.Now()
	defer func() { observe("select", "alarms", start, err) }()

	where, args := f.where("")
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+alarmColumns+` FROM alarms WHERE `+where+` ORDER BY "timestamp" DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alarms: %w", err)
	}
	if err = scan.Rows(&alarms, rows); err != nil {
		return nil, fmt.Errorf("failed to scan alarms: %w", err)
	}
	return alarms, nil
}

// CountAlarms counts the matching alarms.
func (db *DB) CountAlarms(ctx context.Context, f AlarmFilter) (int64, error) {
	where, args := f.where("")
	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM alarms WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count alarms: %w", err)
	}
	return n, nil
}

// AlarmPage returns one page of list items, newest first, joined with the
// device name and the name of the first point carrying the identity, plus
// the unpaged total.
func (db *DB) AlarmPage(ctx context.Context, f AlarmFilter, page, size int) (items []models.AlarmListItem, total int64, err error) {
	start := time.Now()
	defer func() { observe("select", "alarms", start, err) }()

	if total, err = db.CountAlarms(ctx, f); err != nil {
		return nil, 0, err
	}

	where, args := f.where("a")
	limit, offset := query.Page(page, size)
	rows, err := db.conn.QueryContext(ctx, `
		SELECT
			a.id AS alarm_id,
			a.device_id,
			COALESCE(d.name, ? || CAST(a.device_id AS VARCHAR)) AS device_name,
			a.alarm_type,
			a.state AS alarm_state,
			a.point_id,
			COALESCE((
				SELECT COALESCE(NULLIF(p.name, ''), p.identity)
				FROM points p WHERE p.identity = a.point_id
				ORDER BY p.id LIMIT 1
			), '') AS point_name,
			a.alarm_threshold,
			a.point_value AS alarm_value,
			a."timestamp" AS alarm_timestamp,
			a.end_timestamp AS alarm_end_timestamp
		FROM alarms a
		LEFT JOIN devices d ON d.id = a.device_id
		WHERE `+where+`
		ORDER BY a."timestamp" DESC, a.id DESC
		LIMIT ? OFFSET ?`,
		append(append([]any{UnknownDevicePrefix}, args...), limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query alarm page: %w", err)
	}
	if err = scan.Rows(&items, rows); err != nil {
		return nil, 0, fmt.Errorf("failed to scan alarm page: %w", err)
	}
	return items, total, nil
}

// SetAlarmState changes an alarm's state and appends an operate log entry in
// one transaction.
func (db *DB) SetAlarmState(ctx context.Context, id int64, state models.AlarmState, action string, at time.Time) (err error) {
	start := time.Now()
	defer func() { observe("update", "alarms", start, err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int64
	if err = tx.QueryRowContext(ctx, `SELECT count(*) FROM alarms WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to look up alarm: %w", err)
	}
	if exists == 0 {
		err = ErrAlarmNotFound
		return err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE alarms SET state = ? WHERE id = ?`, string(state), id); err != nil {
		return fmt.Errorf("failed to update alarm state: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO alarm_operate_logs (alarm_id, operate_action, operate_time) VALUES (?, ?, ?)`,
		id, action, at.UTC()); err != nil {
		return fmt.Errorf("failed to insert operate log: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit alarm state: %w", err)
	}
	return nil
}

// OperateLogs returns an alarm's operate log, newest first. limit <= 0 means
// all entries.
func (db *DB) OperateLogs(ctx context.Context, alarmID int64, limit int) ([]models.AlarmOperateLog, error) {
	q := `SELECT id, alarm_id, operate_action, operate_time FROM alarm_operate_logs
		WHERE alarm_id = ? ORDER BY operate_time DESC, id DESC`
	args := []any{alarmID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query operate logs: %w", err)
	}
	var logs []models.AlarmOperateLog
	if err := scan.Rows(&logs, rows); err != nil {
		return nil, fmt.Errorf("failed to scan operate logs: %w", err)
	}
	return logs, nil
}
