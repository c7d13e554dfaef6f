// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package api

import (
	"context"
	"sync"

	"github.com/tomtom215/twinpulse/internal/alarm"
	"github.com/tomtom215/twinpulse/internal/auth"
	"github.com/tomtom215/twinpulse/internal/database"
	"github.com/tomtom215/twinpulse/internal/eventprocessor"
	"github.com/tomtom215/twinpulse/internal/models"
	"github.com/tomtom215/twinpulse/internal/trial"
)

type fakeSink struct {
	mu   sync.Mutex
	sent []*models.SensorData
	err  error
}

func (f *fakeSink) Send(_ context.Context, reading *models.SensorData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, reading.Clone())
	return f.err
}

type fakeReadings struct {
	gotLimit int
}

func (f *fakeReadings) LatestReadings(_ context.Context, limit int) ([]models.LatestReading, error) {
	f.gotLimit = limit
	return nil, nil
}

type fakeAlarms struct {
	gotState  models.AlarmState
	gotDevice *int64
	gotQuery  alarm.ListQuery
	acked     []int64
	err       error
}

func (f *fakeAlarms) All(context.Context) ([]models.Alarm, error) { return nil, f.err }
func (f *fakeAlarms) ByDevice(_ context.Context, id int64) ([]models.Alarm, error) {
	f.gotDevice = &id
	return nil, f.err
}
func (f *fakeAlarms) ByPoint(context.Context, string) ([]models.Alarm, error)  { return nil, f.err }
func (f *fakeAlarms) BySensor(context.Context, string) ([]models.Alarm, error) { return nil, f.err }
func (f *fakeAlarms) ByState(_ context.Context, s models.AlarmState, d *int64) ([]models.Alarm, error) {
	f.gotState, f.gotDevice = s, d
	return []models.Alarm{{ID: 1, State: s}}, f.err
}
func (f *fakeAlarms) Count(context.Context) (int64, error) { return 7, f.err }
func (f *fakeAlarms) CountInRange(_ context.Context, timeRange string) (int64, error) {
	if timeRange == "decade" {
		return 0, alarm.ErrInvalidTimeRange
	}
	return 3, f.err
}
func (f *fakeAlarms) List(_ context.Context, q alarm.ListQuery) (*models.AlarmListResponse, error) {
	f.gotQuery = q
	return &models.AlarmListResponse{Alarms: []models.AlarmListItem{}}, f.err
}
func (f *fakeAlarms) Detail(context.Context, int64, bool, int) (*models.AlarmDetail, error) {
	return nil, database.ErrAlarmNotFound
}
func (f *fakeAlarms) LatestByDevice(context.Context, int64) (*models.AlarmDetail, error) {
	return &models.AlarmDetail{AlarmID: 5}, f.err
}
func (f *fakeAlarms) Ack(_ context.Context, id int64) error {
	f.acked = append(f.acked, id)
	return f.err
}
func (f *fakeAlarms) Ignore(context.Context, int64) error { return f.err }

type fakePoints struct {
	created *models.PointRequest
	filter  database.FailureFilter
}

func (f *fakePoints) CreateDevice(_ context.Context, d *models.Device) error {
	d.ID = 1
	return nil
}
func (f *fakePoints) ListDevices(context.Context) ([]models.Device, error) { return nil, nil }
func (f *fakePoints) Create(_ context.Context, req *models.PointRequest) (*models.Point, error) {
	f.created = req
	p := &models.Point{ID: 10}
	req.Apply(p)
	return p, nil
}
func (f *fakePoints) Get(_ context.Context, id int64) (*models.Point, error) {
	if id != 10 {
		return nil, database.ErrPointNotFound
	}
	return &models.Point{ID: 10, Identity: "HeatFlux"}, nil
}
func (f *fakePoints) List(context.Context) ([]models.Point, error) { return nil, nil }
func (f *fakePoints) Update(_ context.Context, id int64, req *models.PointRequest) (*models.Point, error) {
	p := &models.Point{ID: id}
	req.Apply(p)
	return p, nil
}
func (f *fakePoints) Delete(context.Context, int64) error { return nil }
func (f *fakePoints) ListFailures(_ context.Context, flt database.FailureFilter) ([]models.FailureRecord, int64, error) {
	f.filter = flt
	return nil, 0, nil
}

type fakeTrials struct {
	filter models.TrialFilter
}

func (f *fakeTrials) List(_ context.Context, flt models.TrialFilter) (*models.TrialListResponse, error) {
	f.filter = flt
	return &models.TrialListResponse{Trials: []models.Trial{}}, nil
}
func (f *fakeTrials) Count(context.Context) (int64, error) { return 2, nil }
func (f *fakeTrials) History(context.Context, int64) ([]models.HistoryData, error) {
	return nil, nil
}
func (f *fakeTrials) StartReplay(context.Context, int64) (string, error) {
	return "1700000000000-4", nil
}
func (f *fakeTrials) SetRate(subscribeID string, _ float64) error {
	if subscribeID != "1700000000000-4" {
		return trial.ErrReplayNotFound
	}
	return nil
}

type fakeFiles struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeFiles) Presign(_ context.Context, req *models.PresignRequest) (*models.PresignResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return &models.PresignResponse{
		PresignedURL:  "http://storage.test/twin/" + req.FileName,
		FileName:      req.FileName,
		OperationType: req.OperationType,
		ExpiryTime:    models.ExpiryTimeFrom(fixedNow, req.ExpiryMinutes()),
		BucketName:    "twin",
	}, nil
}

func (f *fakeFiles) ServerInfo() models.StorageServerInfo {
	return models.StorageServerInfo{Endpoint: "http://storage.test", BucketName: "twin", Region: "us-east-1"}
}

type fakeLogins struct{}

func (fakeLogins) Login(_ context.Context, username, password string) (*models.LoginResponse, error) {
	if username != "op" || password != "op-pass" {
		return nil, auth.ErrInvalidCredentials
	}
	return &models.LoginResponse{Token: "tok", Username: "op", Role: auth.RoleOperator}, nil
}

type fakeReadiness struct {
	healthy bool
}

func (f fakeReadiness) CheckAll(context.Context) eventprocessor.OverallHealth {
	status := eventprocessor.HealthStatusHealthy
	if !f.healthy {
		status = eventprocessor.HealthStatusUnhealthy
	}
	return eventprocessor.OverallHealth{Healthy: f.healthy, Status: status}
}
