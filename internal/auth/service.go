// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/twinpulse/internal/config"
	"github.com/tomtom215/twinpulse/internal/database"
	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/models"
)

// UserStore looks up stored logins.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Service checks credentials and issues tokens.
type Service struct {
	jwt           *JWTManager
	users         UserStore
	adminUsername string
	adminHash     []byte

	// dummyHash keeps the cost of a failed lookup equal to a failed compare.
	dummyHash []byte
}

// NewService hashes the configured admin password once. users may be nil,
// in which case only the admin can log in.
func NewService(cfg *config.SecurityConfig, jwt *JWTManager, users UserStore) (*Service, error) {
	if jwt == nil {
		return nil, errors.New("jwt manager is required")
	}
	s := &Service{jwt: jwt, users: users, adminUsername: cfg.AdminUsername}

	var err error
	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		s.adminHash, err = bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
	}
	s.dummyHash, err = bcrypt.GenerateFromPassword([]byte("twinpulse-dummy"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}
	return s, nil
}

// Login verifies username and password and returns a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	role, err := s.verify(ctx, username, password)
	if err != nil {
		logging.Ctx(ctx).Warn().Str("username", username).Err(err).Msg("Login rejected")
		return nil, err
	}

	token, expires, err := s.jwt.GenerateToken(username, role)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Str("username", username).Str("role", role).Msg("Login succeeded")
	return &models.LoginResponse{Token: token, Username: username, Role: role, ExpiresAt: expires}, nil
}

func (s *Service) verify(ctx context.Context, username, password string) (string, error) {
	if s.adminHash != nil && subtle.ConstantTimeCompare([]byte(username), []byte(s.adminUsername)) == 1 {
		if bcrypt.CompareHashAndPassword(s.adminHash, []byte(password)) != nil {
			return "", ErrInvalidCredentials
		}
		return RoleAdmin, nil
	}

	if s.users == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return "", ErrInvalidCredentials
	}
	u, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, database.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("look up user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	if !u.Enabled {
		return "", ErrUserDisabled
	}
	if !ValidRole(u.Role) {
		return RoleViewer, nil
	}
	return u.Role, nil
}

// HashPassword returns a bcrypt hash suitable for models.User.PasswordHash.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
