// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package points

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/twinpulse/internal/database"
	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/models"
)

// Store is the persistence the point service needs. *database.DB satisfies it.
type Store interface {
	Lister
	CreateDevice(ctx context.Context, d *models.Device) error
	ListDevices(ctx context.Context) ([]models.Device, error)
	CreatePoint(ctx context.Context, p *models.Point) error
	GetPoint(ctx context.Context, id int64) (*models.Point, error)
	UpdatePoint(ctx context.Context, p *models.Point) error
	DeletePoint(ctx context.Context, id int64) error
	UpdateCollectionStats(ctx context.Context, ids []int64, now time.Time) error

	InsertFailureRecord(ctx context.Context, f *models.FailureRecord) error
	ActiveFailureRecord(ctx context.Context, pointID int64) (*models.FailureRecord, error)
	ResolveFailureRecord(ctx context.Context, id int64, description string, at time.Time) error
	ListFailureRecords(ctx context.Context, f database.FailureFilter) ([]models.FailureRecord, int64, error)
}

// Service manages points, devices and point failure records. Writes refresh
// the registry so the pipeline sees them without waiting for the next tick.
type Service struct {
	store    Store
	registry *Registry
	now      func() time.Time
}

// NewService creates a point service over store and registry.
func NewService(store Store, registry *Registry) *Service {
	return &Service{store: store, registry: registry, now: time.Now}
}

// Registry returns the registry the service keeps current.
func (s *Service) Registry() *Registry {
	return s.registry
}

func (s *Service) refresh(ctx context.Context) {
	if err := s.registry.Refresh(ctx); err != nil {
		logging.Warn().Err(err).Msg("Point registry refresh after write failed")
	}
}

// CreateDevice stores a new device.
func (s *Service) CreateDevice(ctx context.Context, d *models.Device) error {
	return s.store.CreateDevice(ctx, d)
}

// ListDevices returns every device.
func (s *Service) ListDevices(ctx context.Context) ([]models.Device, error) {
	return s.store.ListDevices(ctx)
}

// Create stores a new point.
func (s *Service) Create(ctx context.Context, req *models.PointRequest) (*models.Point, error) {
	var p models.Point
	req.Apply(&p)
	if err := s.store.CreatePoint(ctx, &p); err != nil {
		return nil, err
	}
	s.refresh(ctx)
	return &p, nil
}

// Get returns one point.
func (s *Service) Get(ctx context.Context, id int64) (*models.Point, error) {
	return s.store.GetPoint(ctx, id)
}

// List returns every point.
func (s *Service) List(ctx context.Context) ([]models.Point, error) {
	return s.store.ListPoints(ctx)
}

// Update replaces the editable fields of a point.
func (s *Service) Update(ctx context.Context, id int64, req *models.PointRequest) (*models.Point, error) {
	p, err := s.store.GetPoint(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(p)
	if err := s.store.UpdatePoint(ctx, p); err != nil {
		return nil, err
	}
	s.refresh(ctx)
	return p, nil
}

// Delete removes a point.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeletePoint(ctx, id); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

// UpdateCollectionStats records a collection for every registered point whose
// identity is in identities.
func (s *Service) UpdateCollectionStats(ctx context.Context, identities []string) error {
	ids := s.registry.IDs(identities)
	if len(ids) == 0 {
		return nil
	}
	return s.store.UpdateCollectionStats(ctx, ids, s.now())
}

// RecordFailure opens a failure record on a point.
func (s *Service) RecordFailure(ctx context.Context, pointID int64, description, value string) (*models.FailureRecord, error) {
	f := &models.FailureRecord{
		PointID:     pointID,
		FailureTime: s.now(),
		Description: description,
		Value:       value,
	}
	if err := s.store.InsertFailureRecord(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// ActiveFailure returns the open failure record of a point, or nil when the
// point has none.
func (s *Service) ActiveFailure(ctx context.Context, pointID int64) (*models.FailureRecord, error) {
	f, err := s.store.ActiveFailureRecord(ctx, pointID)
	if errors.Is(err, database.ErrFailureNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active failure of point %d: %w", pointID, err)
	}
	return f, nil
}

// ResolveFailure closes a failure record.
func (s *Service) ResolveFailure(ctx context.Context, recordID int64, description string) error {
	return s.store.ResolveFailureRecord(ctx, recordID, description, s.now())
}

// ListFailures returns a page of failure records.
func (s *Service) ListFailures(ctx context.Context, f database.FailureFilter) ([]models.FailureRecord, int64, error) {
	return s.store.ListFailureRecords(ctx, f)
}
