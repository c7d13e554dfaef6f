// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package models

import "time"

// Device groups points.
type Device struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name" validate:"required,max=255"`
	Description string    `json:"description" db:"description" validate:"max=1000"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Point is a registered measurement. Several points may share an identity,
// for example the same signal wired to two devices.
type Point struct {
	ID       int64  `json:"id" db:"id"`
	Identity string `json:"identity" db:"identity"`
	Name     string `json:"name" db:"name"`
	Path     string `json:"path" db:"path"`
	Unit     string `json:"unit" db:"unit"`
	DeviceID int64  `json:"deviceId" db:"device_id"`

	Writeable bool `json:"writeable" db:"writeable"`
	Published bool `json:"published" db:"published"`
	Alarmable bool `json:"alarmable" db:"alarmable"`

	// StateAlarm is the boolean value that raises a state alarm.
	StateAlarm     *bool    `json:"stateAlarm" db:"state_alarm"`
	UpperHighLimit *float64 `json:"upperHighLimit" db:"upper_high_limit"`
	UpperLimit     *float64 `json:"upperLimit" db:"upper_limit"`
	LowerLimit     *float64 `json:"lowerLimit" db:"lower_limit"`
	LowerLowLimit  *float64 `json:"lowerLowLimit" db:"lower_low_limit"`

	LastCollectionTime      *time.Time `json:"lastCollectionTime" db:"last_collection_time"`
	TotalCollectionCount    int64      `json:"totalCollectionCount" db:"total_collection_count"`
	TotalCollectionDuration int64      `json:"totalCollectionDuration" db:"total_collection_duration"`
	CreatedAt               time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt               time.Time  `json:"updatedAt" db:"updated_at"`
}

// PointRequest creates or updates a point.
type PointRequest struct {
	Identity       string   `json:"identity" validate:"required,max=255"`
	Name           string   `json:"name" validate:"max=255"`
	Path           string   `json:"path" validate:"max=1000"`
	Unit           string   `json:"unit" validate:"max=50"`
	DeviceID       int64    `json:"deviceId" validate:"required,gt=0"`
	Writeable      bool     `json:"writeable"`
	Published      bool     `json:"published"`
	Alarmable      bool     `json:"alarmable"`
	StateAlarm     *bool    `json:"stateAlarm"`
	UpperHighLimit *float64 `json:"upperHighLimit"`
	UpperLimit     *float64 `json:"upperLimit"`
	LowerLimit     *float64 `json:"lowerLimit"`
	LowerLowLimit  *float64 `json:"lowerLowLimit"`
}

// Apply copies the request onto p.
func (r *PointRequest) Apply(p *Point) {
	p.Identity = r.Identity
	p.Name = r.Name
	p.Path = r.Path
	p.Unit = r.Unit
	p.DeviceID = r.DeviceID
	p.Writeable = r.Writeable
	p.Published = r.Published
	p.Alarmable = r.Alarmable
	p.StateAlarm = r.StateAlarm
	p.UpperHighLimit = r.UpperHighLimit
	p.UpperLimit = r.UpperLimit
	p.LowerLimit = r.LowerLimit
	p.LowerLowLimit = r.LowerLowLimit
}

// FailureRecord is an EStop episode on a point. ResolvedAt is nil while the
// failure is active.
type FailureRecord struct {
	ID                 int64      `json:"id" db:"id"`
	PointID            int64      `json:"pointId" db:"point_id"`
	FailureTime        time.Time  `json:"failureTime" db:"failure_time"`
	Description        string     `json:"description" db:"description"`
	Value              string     `json:"value" db:"value"`
	ResolvedAt         *time.Time `json:"resolvedAt" db:"resolved_at"`
	ResolveDescription *string    `json:"resolveDescription" db:"resolve_description"`
}

// Active reports whether the failure has not been resolved.
func (f *FailureRecord) Active() bool {
	return f.ResolvedAt == nil
}

// FailureListResponse is a page of failure records plus the unpaged total.
type FailureListResponse struct {
	TotalCount int64           `json:"totalCount"`
	Records    []FailureRecord `json:"records"`
}
