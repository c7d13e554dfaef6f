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

// GetUserByUsername returns a stored user or ErrUserNotFound.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, username, password_hash, role, enabled, created_at FROM users WHERE username = ?`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	var u models.User
	if err := scan.Row(&u, rows); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// CreateUser stores a user. PasswordHash must already be a bcrypt hash.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	if _, err := db.GetUserByUsername(ctx, u.Username); err == nil {
		return ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	u.CreatedAt = time.Now().UTC()
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, role, enabled, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		u.Username, u.PasswordHash, u.Role, u.Enabled, u.CreatedAt).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}
