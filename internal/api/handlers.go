// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/twinpulse/internal/alarm"
	"github.com/tomtom215/twinpulse/internal/authz"
	"github.com/tomtom215/twinpulse/internal/database"
	"github.com/tomtom215/twinpulse/internal/eventprocessor"
	"github.com/tomtom215/twinpulse/internal/models"
)

// ReadingSink accepts readings for the broker.
type ReadingSink interface {
	Send(ctx context.Context, reading *models.SensorData) error
}

// ReadingStore serves the latest persisted readings.
type ReadingStore interface {
	LatestReadings(ctx context.Context, limit int) ([]models.LatestReading, error)
}

// AlarmService answers alarm queries and operations.
type AlarmService interface {
	All(ctx context.Context) ([]models.Alarm, error)
	ByDevice(ctx context.Context, deviceID int64) ([]models.Alarm, error)
	ByPoint(ctx context.Context, identity string) ([]models.Alarm, error)
	BySensor(ctx context.Context, sensorID string) ([]models.Alarm, error)
	ByState(ctx context.Context, state models.AlarmState, deviceID *int64) ([]models.Alarm, error)
	Count(ctx context.Context) (int64, error)
	CountInRange(ctx context.Context, timeRange string) (int64, error)
	List(ctx context.Context, q alarm.ListQuery) (*models.AlarmListResponse, error)
	Detail(ctx context.Context, id int64, withLogs bool, logLimit int) (*models.AlarmDetail, error)
	LatestByDevice(ctx context.Context, deviceID int64) (*models.AlarmDetail, error)
	Ack(ctx context.Context, id int64) error
	Ignore(ctx context.Context, id int64) error
}

// PointService manages devices, points and failure records.
type PointService interface {
	CreateDevice(ctx context.Context, d *models.Device) error
	ListDevices(ctx context.Context) ([]models.Device, error)
	Create(ctx context.Context, req *models.PointRequest) (*models.Point, error)
	Get(ctx context.Context, id int64) (*models.Point, error)
	List(ctx context.Context) ([]models.Point, error)
	Update(ctx context.Context, id int64, req *models.PointRequest) (*models.Point, error)
	Delete(ctx context.Context, id int64) error
	ListFailures(ctx context.Context, f database.FailureFilter) ([]models.FailureRecord, int64, error)
}

// TrialService lists trials and replays their history.
type TrialService interface {
	List(ctx context.Context, f models.TrialFilter) (*models.TrialListResponse, error)
	Count(ctx context.Context) (int64, error)
	History(ctx context.Context, id int64) ([]models.HistoryData, error)
	StartReplay(ctx context.Context, trialID int64) (string, error)
	SetRate(subscribeID string, rate float64) error
}

// FileService issues presigned object storage URLs.
type FileService interface {
	Presign(ctx context.Context, req *models.PresignRequest) (*models.PresignResponse, error)
	ServerInfo() models.StorageServerInfo
}

// LoginService authenticates credentials and issues tokens.
type LoginService interface {
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
}

// PermissionLister reports the permissions a role holds.
type PermissionLister interface {
	Permissions(role string) []authz.Permission
}

// WebSocketHub attaches upgraded connections to the push hub.
type WebSocketHub interface {
	ServeWS(upgrader *websocket.Upgrader, w http.ResponseWriter, r *http.Request, username string)
	GetClientCount() int
}

// ReadinessChecker aggregates component health.
type ReadinessChecker interface {
	CheckAll(ctx context.Context) eventprocessor.OverallHealth
}

// Deps are the services behind the handlers. Files and Logins may be nil
// when object storage or authentication is disabled.
type Deps struct {
	Sink        ReadingSink
	Readings    ReadingStore
	Alarms      AlarmService
	Points      PointService
	Trials      TrialService
	Files       FileService
	Logins      LoginService
	Permissions PermissionLister
	Hub         WebSocketHub
	Upgrader    *websocket.Upgrader
	Readiness   ReadinessChecker
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files by route group:
//   - handlers_health.go: health and readiness
//   - handlers_auth.go: login and current subject
//   - handlers_sensor.go: reading ingest and latest readings
//   - handlers_alarm.go: alarm queries and operations
//   - handlers_points.go: devices, points, failure records
//   - handlers_trial.go: trials and history replay
//   - handlers_files.go: presigned object storage URLs
//   - handlers_ws.go: WebSocket upgrade
type Handler struct {
	Deps
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{Deps: deps, startTime: time.Now(), now: time.Now}
}
