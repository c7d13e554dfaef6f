// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package alarm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/twinpulse/internal/database"
	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/models"
)

// DisplayLayout formats alarm times for the dashboard.
const DisplayLayout = "2006-01-02 15:04:05"

// QueryStore is the alarm persistence behind the REST queries.
type QueryStore interface {
	GetAlarm(ctx context.Context, id int64) (*models.Alarm, error)
	LatestAlarmByDevice(ctx context.Context, deviceID int64) (*models.Alarm, error)
	ListAlarms(ctx context.Context, f database.AlarmFilter) ([]models.Alarm, error)
	CountAlarms(ctx context.Context, f database.AlarmFilter) (int64, error)
	AlarmPage(ctx context.Context, f database.AlarmFilter, page, size int) ([]models.AlarmListItem, int64, error)
	SetAlarmState(ctx context.Context, id int64, state models.AlarmState, action string, at time.Time) error
	OperateLogs(ctx context.Context, alarmID int64, limit int) ([]models.AlarmOperateLog, error)
	FindPoint(ctx context.Context, identity string, deviceID int64) (*models.Point, error)
	GetDevice(ctx context.Context, id int64) (*models.Device, error)
}

// Service answers alarm queries and operator actions.
type Service struct {
	store QueryStore
	now   func() time.Time
}

// NewService creates the query service.
func NewService(store QueryStore) *Service {
	return &Service{store: store, now: time.Now}
}

// All returns every alarm, newest first.
func (s *Service) All(ctx context.Context) ([]models.Alarm, error) {
	return s.store.ListAlarms(ctx, database.AlarmFilter{})
}

// ByDevice returns the alarms of one device.
func (s *Service) ByDevice(ctx context.Context, deviceID int64) ([]models.Alarm, error) {
	return s.store.ListAlarms(ctx, database.AlarmFilter{DeviceID: &deviceID})
}

// ByPoint returns the alarms of one point identity.
func (s *Service) ByPoint(ctx context.Context, identity string) ([]models.Alarm, error) {
	return s.store.ListAlarms(ctx, database.AlarmFilter{PointID: identity})
}

// BySensor returns the alarms raised by one reading.
func (s *Service) BySensor(ctx context.Context, sensorID string) ([]models.Alarm, error) {
	return s.store.ListAlarms(ctx, database.AlarmFilter{SensorID: sensorID})
}

// ByState returns the alarms in state, optionally narrowed to a device.
func (s *Service) ByState(ctx context.Context, state models.AlarmState, deviceID *int64) ([]models.Alarm, error) {
	if !state.Valid() {
		return nil, fmt.Errorf("unknown alarm state %q", state)
	}
	return s.store.ListAlarms(ctx, database.AlarmFilter{State: state, DeviceID: deviceID})
}

// Count returns the number of alarms ever raised.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.CountAlarms(ctx, database.AlarmFilter{})
}

// CountInRange counts the alarms raised in the named time range.
func (s *Service) CountInRange(ctx context.Context, timeRange string) (int64, error) {
	r, err := ParseTimeRange(timeRange)
	if err != nil {
		return 0, err
	}
	from, to := r.Bounds(s.now())
	return s.store.CountAlarms(ctx, database.AlarmFilter{From: &from, To: &to})
}

// ListQuery selects a page of alarms. DeviceID takes precedence over
// TimeRange; with neither set every alarm is listed.
type ListQuery struct {
	DeviceID  *int64
	TimeRange string
	Page      int
	Size      int
}

// List returns one page of alarms with device and point names.
func (s *Service) List(ctx context.Context, q ListQuery) (*models.AlarmListResponse, error) {
	var f database.AlarmFilter
	switch {
	case q.DeviceID != nil:
		f.DeviceID = q.DeviceID
	case q.TimeRange != "":
		r, err := ParseTimeRange(q.TimeRange)
		if err != nil {
			return nil, err
		}
		from, to := r.Bounds(s.now())
		f.From, f.To = &from, &to
	}

	items, total, err := s.store.AlarmPage(ctx, f, q.Page, q.Size)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].AlarmTime = formatMillis(items[i].AlarmTimestamp)
		if items[i].AlarmEndTimestamp != nil && *items[i].AlarmEndTimestamp > 0 {
			items[i].AlarmEndTime = formatMillis(*items[i].AlarmEndTimestamp)
		}
	}
	if items == nil {
		items = []models.AlarmListItem{}
	}
	return &models.AlarmListResponse{TotalCount: total, Alarms: items}, nil
}

// Detail returns an alarm joined with its point and device. withLogs adds
// the operate log, newest first, at most logLimit entries (0 = all).
func (s *Service) Detail(ctx context.Context, id int64, withLogs bool, logLimit int) (*models.AlarmDetail, error) {
	a, err := s.store.GetAlarm(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, a, withLogs, logLimit)
}

// LatestByDevice returns the detail of a device's newest alarm.
func (s *Service) LatestByDevice(ctx context.Context, deviceID int64) (*models.AlarmDetail, error) {
	a, err := s.store.LatestAlarmByDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, a, false, 0)
}

func (s *Service) detail(ctx context.Context, a *models.Alarm, withLogs bool, logLimit int) (*models.AlarmDetail, error) {
	d := &models.AlarmDetail{
		AlarmID:                  a.ID,
		Timestamp:                a.Timestamp,
		FormattedTimestamp:       formatMillis(a.Timestamp),
		SensorTimestamp:          a.SensorTimestamp,
		FormattedSensorTimestamp: formatMillis(a.SensorTimestamp),
		AlarmType:                a.AlarmType,
		AlarmThreshold:           a.AlarmThreshold,
		AlarmValue:               a.PointValue,
		AlarmState:               string(a.State),
		PointIdentity:            a.PointID,
		DeviceID:                 a.DeviceID,
		DeviceName:               deviceName(ctx, s.store, a.DeviceID),
		EndTimestamp:             a.EndTimestamp,
	}

	p, err := s.store.FindPoint(ctx, a.PointID, a.DeviceID)
	switch {
	case err == nil:
		d.PointID = p.ID
		d.PointPath = p.Path
		d.PointUnit = p.Unit
	case errors.Is(err, database.ErrPointNotFound):
		logging.Debug().Int64("alarm_id", a.ID).Str("point", a.PointID).Msg("Alarm point no longer registered")
	default:
		return nil, err
	}

	if withLogs {
		logs, err := s.store.OperateLogs(ctx, a.ID, logLimit)
		if err != nil {
			return nil, err
		}
		d.OperateLogs = logs
	}
	return d, nil
}

// Ack confirms an alarm.
func (s *Service) Ack(ctx context.Context, id int64) error {
	return s.setState(ctx, id, models.AlarmConfirmed, models.OperateAck)
}

// Ignore marks an alarm as ignored.
func (s *Service) Ignore(ctx context.Context, id int64) error {
	return s.setState(ctx, id, models.AlarmIgnored, models.OperateIgnore)
}

func (s *Service) setState(ctx context.Context, id int64, state models.AlarmState, action string) error {
	if err := s.store.SetAlarmState(ctx, id, state, action, s.now()); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Int64("alarm_id", id).Str("state", string(state)).Msg("Alarm state changed")
	return nil
}

func formatMillis(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).Format(DisplayLayout)
}
