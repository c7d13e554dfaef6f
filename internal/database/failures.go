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

	"github.com/tomtom215/twinpulse/internal/database/query"
	"github.com/tomtom215/twinpulse/internal/models"
)

const failureColumns = `id, point_id, failure_time, description, value, resolved_at, resolve_description`

// InsertFailureRecord opens a failure record on a point.
func (db *DB) InsertFailureRecord(ctx context.Context, f *models.FailureRecord) error {
	if f.FailureTime.IsZero() {
		f.FailureTime = time.Now()
	}
	f.FailureTime = f.FailureTime.UTC()
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO point_failure_records (point_id, failure_time, description, value) VALUES (?, ?, ?, ?) RETURNING id`,
		f.PointID, f.FailureTime, f.Description, f.Value).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("failed to insert failure record: %w", err)
	}
	return nil
}

// ActiveFailureRecord returns the newest unresolved record of a point, or
// ErrFailureNotFound.
func (db *DB) ActiveFailureRecord(ctx context.Context, pointID int64) (*models.FailureRecord, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+failureColumns+` FROM point_failure_records
		 WHERE point_id = ? AND resolved_at IS NULL
		 ORDER BY failure_time DESC, id DESC LIMIT 1`, pointID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active failure: %w", err)
	}
	var f models.FailureRecord
	if err := scan.Row(&f, rows); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFailureNotFound
		}
		return nil, fmt.Errorf("failed to scan failure record: %w", err)
	}
	return &f, nil
}

// ResolveFailureRecord closes a record.
func (db *DB) ResolveFailureRecord(ctx context.Context, id int64, description string, at time.Time) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE point_failure_records SET resolved_at = ?, resolve_description = ? WHERE id = ? AND resolved_at IS NULL`,
		at.UTC(), description, id)
	if err != nil {
		return fmt.Errorf("failed to resolve failure record: %w", err)
	}
	return requireAffected(res, ErrFailureNotFound)
}

// FailureFilter narrows ListFailureRecords.
type FailureFilter struct {
	PointID    *int64
	ActiveOnly bool
	Page       int
	Size       int
}

// ListFailureRecords returns a page of records, newest first, with the
// unpaged total.
func (db *DB) ListFailureRecords(ctx context.Context, f FailureFilter) ([]models.FailureRecord, int64, error) {
	wb := query.NewWhereBuilder().AddInt64("point_id", f.PointID)
	if f.ActiveOnly {
		wb.AddClause("resolved_at IS NULL")
	}
	where, args := wb.Build()

	var total int64
	if err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM point_failure_records WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count failure records: %w", err)
	}

	limit, offset := query.Page(f.Page, f.Size)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+failureColumns+` FROM point_failure_records WHERE `+where+
			` ORDER BY failure_time DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query failure records: %w", err)
	}
	var records []models.FailureRecord
	if err := scan.Rows(&records, rows); err != nil {
		return nil, 0, fmt.Errorf("failed to scan failure records: %w", err)
	}
	return records, total, nil
}
