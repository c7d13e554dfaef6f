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

const trialColumns = `id, name, run_no, mode, start_timestamp, end_timestamp`

// TrialDateLayout is the layout of TrialFilter.Date.
const TrialDateLayout = "20060102"

// InsertTrial stores a trial and fills in its ID.
func (db *DB) InsertTrial(ctx context.Context, t *models.Trial) error {
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO trials (name, run_no, mode, start_timestamp, end_timestamp) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		t.Name, t.RunNo, t.Mode, t.StartTimestamp, t.EndTimestamp).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to insert trial: %w", err)
	}
	return nil
}

// GetTrial returns one trial or ErrTrialNotFound.
func (db *DB) GetTrial(ctx context.Context, id int64) (*models.Trial, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+trialColumns+` FROM trials WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query trial: %w", err)
	}
	var t models.Trial
	if err := scan.Row(&t, rows); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTrialNotFound
		}
		return nil, fmt.Errorf("failed to scan trial: %w", err)
	}
	return &t, nil
}

// EndLastOpenTrial sets the end timestamp of the most recently started trial
// that has none. It returns ErrTrialNotFound when every trial is closed.
func (db *DB) EndLastOpenTrial(ctx context.Context, endTimestamp int64) (*models.Trial, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+trialColumns+` FROM trials WHERE end_timestamp IS NULL
		 ORDER BY start_timestamp DESC, id DESC LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to query open trial: %w", err)
	}
	var t models.Trial
	if err := scan.Row(&t, rows); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTrialNotFound
		}
		return nil, fmt.Errorf("failed to scan trial: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx,
		`UPDATE trials SET end_timestamp = ? WHERE id = ?`, endTimestamp, t.ID); err != nil {
		return nil, fmt.Errorf("failed to end trial: %w", err)
	}
	t.EndTimestamp = &endTimestamp
	return &t, nil
}

// trialWhere turns the filter into a WHERE clause. Date selects trials that
// started on that local calendar day.
func trialWhere(f models.TrialFilter) (string, []any, error) {
	wb := query.NewWhereBuilder().
		AddContains("name", f.Name).
		AddEquals("run_no", f.RunNo)
	if f.Date != "" {
		day, err := time.ParseInLocation(TrialDateLayout, f.Date, time.Local)
		if err != nil {
			return "", nil, fmt.Errorf("invalid date %q: %w", f.Date, err)
		}
		from := day.UnixMilli()
		to := day.AddDate(0, 0, 1).UnixMilli()
		wb.AddRange("start_timestamp", &from, &to)
	}
	where, args := wb.Build()
	return where, args, nil
}

// ListTrials returns one page of matching trials, newest ID first, with the
// unpaged total.
func (db *DB) ListTrials(ctx context.Context, f models.TrialFilter) ([]models.Trial, int64, error) {
	where, args, err := trialWhere(f)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM trials WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count trials: %w", err)
	}

	limit, offset := query.Page(f.Page, f.Size)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+trialColumns+` FROM trials WHERE `+where+` ORDER BY id DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query trials: %w", err)
	}
	var trials []models.Trial
	if err := scan.Rows(&trials, rows); err != nil {
		return nil, 0, fmt.Errorf("failed to scan trials: %w", err)
	}
	return trials, total, nil
}

// CountTrials counts every trial.
func (db *DB) CountTrials(ctx context.Context) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM trials`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count trials: %w", err)
	}
	return n, nil
}
