// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package alarm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/twinpulse/internal/config"
	"github.com/tomtom215/twinpulse/internal/database"
	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/metrics"
	"github.com/tomtom215/twinpulse/internal/models"
	"github.com/tomtom215/twinpulse/internal/websocket"
)

// Store is the alarm persistence the analyzer needs.
type Store interface {
	CountRecentAlarms(ctx context.Context, pointID string, since int64) (int64, error)
	UnendedAlarms(ctx context.Context, pointID string, alarmTypes ...string) ([]models.Alarm, error)
	InsertAlarm(ctx context.Context, a *models.Alarm) error
	TouchAlarms(ctx context.Context, ids []int64, lastSensorTimestamp int64) error
	EndAlarms(ctx context.Context, ids []int64, endTimestamp int64) error
	GetDevice(ctx context.Context, id int64) (*models.Device, error)
}

// PointSource resolves registered points by identity.
type PointSource interface {
	ByIdentity(identity string) []models.Point
}

// Notifier pushes frames to WebSocket subscribers.
type Notifier interface {
	Publish(topic string, payload any)
}

// Config tunes analysis.
type Config struct {
	// DuplicateWindow suppresses a new alarm on a point identity when any
	// alarm for it was raised within the window.
	DuplicateWindow time.Duration
	Workers         int
	QueueSize       int
	// JobTimeout bounds the database work for one point entry.
	JobTimeout time.Duration
}

// DefaultConfig returns the defaults used when the config file is silent.
func DefaultConfig() Config {
	return Config{
		DuplicateWindow: 60 * time.Minute,
		Workers:         4,
		QueueSize:       256,
		JobTimeout:      10 * time.Second,
	}
}

// ConfigFrom maps the alarm config section.
func ConfigFrom(c *config.AlarmConfig) Config {
	cfg := DefaultConfig()
	if c.DuplicatePreventionMinutes >= 0 {
		cfg.DuplicateWindow = time.Duration(c.DuplicatePreventionMinutes) * time.Minute
	}
	if c.Workers > 0 {
		cfg.Workers = c.Workers
	}
	if c.QueueSize > 0 {
		cfg.QueueSize = c.QueueSize
	}
	return cfg
}

// Analyzer evaluates readings against point limits and raises, refreshes and
// ends alarms. Analyze runs synchronously; Submit queues a reading for the
// worker pool started by RunWithContext.
type Analyzer struct {
	cfg      Config
	store    Store
	points   PointSource
	notifier Notifier
	now      func() time.Time

	pool *keyedPool
}

// NewAnalyzer creates an analyzer. notifier may be nil.
func NewAnalyzer(cfg Config, store Store, points PointSource, notifier Notifier) *Analyzer {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = def.JobTimeout
	}
	a := &Analyzer{
		cfg:      cfg,
		store:    store,
		points:   points,
		notifier: notifier,
		now:      time.Now,
	}
	a.pool = newKeyedPool(cfg.Workers, cfg.QueueSize, a.runJob)
	return a
}

// entry is one point value of a reading.
type entry struct {
	identity string
	value    any
	sensorID string
	sensorTS int64
}

func entriesOf(reading *models.SensorData) []entry {
	out := make([]entry, 0, len(reading.Points))
	realTS := reading.RealTimestamp()
	for identity, value := range reading.Points {
		out = append(out, entry{identity: identity, value: value, sensorID: reading.ID, sensorTS: realTS})
	}
	return out
}

// Analyze evaluates every point of reading. Errors of individual point
// entries are joined.
func (a *Analyzer) Analyze(ctx context.Context, reading *models.SensorData) error {
	var errs []error
	for _, e := range entriesOf(reading) {
		if err := a.analyzeEntry(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *Analyzer) alarmable(identity string) []models.Point {
	var out []models.Point
	for _, p := range a.points.ByIdentity(identity) {
		if p.Alarmable {
			out = append(out, p)
		}
	}
	return out
}

func (a *Analyzer) runJob(ctx context.Context, e entry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.JobTimeout)
	defer cancel()
	if err := a.analyzeEntry(ctx, e); err != nil {
		metrics.SensorPipelineErrors.WithLabelValues("alarm").Inc()
		logging.Error().Err(err).Str("point", e.identity).Str("sensor_id", e.sensorID).Msg("Alarm analysis failed")
	}
}

func (a *Analyzer) analyzeEntry(ctx context.Context, e entry) error {
	pts := a.alarmable(e.identity)
	var errs []error
	for i := range pts {
		p := &pts[i]
		var err error
		switch v := e.value.(type) {
		case bool:
			err = a.checkState(ctx, p, v, e)
		default:
			if f, ok := models.ToFloat(v); ok {
				err = a.checkLimits(ctx, p, f, e)
			}
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("point %s device %d: %w", p.Identity, p.DeviceID, err))
		}
	}
	return errors.Join(errs...)
}

func (a *Analyzer) checkState(ctx context.Context, p *models.Point, v bool, e entry) error {
	if p.StateAlarm == nil {
		return nil
	}
	if v == *p.StateAlarm {
		return a.raise(ctx, p, models.AlarmTypeState, strconv.FormatBool(*p.StateAlarm), e)
	}
	return a.end(ctx, p.Identity, models.AlarmTypeState)
}

type limitCheck struct {
	alarmType string
	limit     *float64
	breached  func(v, limit float64) bool
}

func above(v, limit float64) bool { return v > limit }
func below(v, limit float64) bool { return v < limit }

func (a *Analyzer) checkLimits(ctx context.Context, p *models.Point, v float64, e entry) error {
	checks := []limitCheck{
		{models.AlarmTypeUpperHigh, p.UpperHighLimit, above},
		{models.AlarmTypeUpper, p.UpperLimit, above},
		{models.AlarmTypeLowerLow, p.LowerLowLimit, below},
		{models.AlarmTypeLower, p.LowerLimit, below},
	}

	triggered := false
	var errs []error
	for _, c := range checks {
		if c.limit == nil || !c.breached(v, *c.limit) {
			continue
		}
		triggered = true
		if err := a.raise(ctx, p, c.alarmType, formatThreshold(*c.limit), e); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.alarmType, err))
		}
	}
	if triggered {
		return errors.Join(errs...)
	}
	return a.end(ctx, p.Identity, models.LimitAlarmTypes...)
}

// formatThreshold renders a limit as stored alarm thresholds expect. Whole
// numbers keep a ".0"; magnitudes outside [1e-3, 1e7) use an exponent such as
// "1.5E-4".
func formatThreshold(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if abs := math.Abs(f); abs == 0 || (abs >= 1e-3 && abs < 1e7) {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'E', -1, 64), "E")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	neg := strings.HasPrefix(exp, "-")
	exp = strings.TrimLeft(exp, "+-0")
	if neg {
		exp = "-" + exp
	}
	return mant + "E" + exp
}

// raise refreshes unended alarms of the type or, when there are none,
// creates a new one unless the duplicate window suppresses it.
func (a *Analyzer) raise(ctx context.Context, p *models.Point, alarmType, threshold string, e entry) error {
	unended, err := a.store.UnendedAlarms(ctx, p.Identity, alarmType)
	if err != nil {
		return err
	}
	if len(unended) > 0 {
		return a.store.TouchAlarms(ctx, alarmIDs(unended), e.sensorTS)
	}

	now := a.now()
	since := now.Add(-a.cfg.DuplicateWindow).UnixMilli()
	recent, err := a.store.CountRecentAlarms(ctx, p.Identity, since)
	if err != nil {
		return err
	}
	if recent > 0 {
		metrics.AlarmsSuppressed.Inc()
		logging.Debug().Str("point", p.Identity).Str("alarm_type", alarmType).Msg("Alarm suppressed by duplicate window")
		return nil
	}

	value, _ := models.Round2(e.value)
	alarm := &models.Alarm{
		Timestamp:           now.UnixMilli(),
		SensorID:            e.sensorID,
		SensorTimestamp:     e.sensorTS,
		PointID:             p.Identity,
		PointValue:          models.FormatValue(value),
		AlarmType:           alarmType,
		AlarmThreshold:      threshold,
		DeviceID:            p.DeviceID,
		LastSensorTimestamp: e.sensorTS,
		State:               models.AlarmUnconfirmed,
		CreatedAt:           now,
	}
	if err := a.store.InsertAlarm(ctx, alarm); err != nil {
		return err
	}
	metrics.AlarmsRaised.WithLabelValues(alarmType).Inc()
	logging.Info().
		Int64("alarm_id", alarm.ID).
		Str("point", p.Identity).
		Str("alarm_type", alarmType).
		Str("value", alarm.PointValue).
		Msg("Alarm raised")

	a.notify(ctx, alarm)
	return nil
}

func (a *Analyzer) end(ctx context.Context, identity string, alarmTypes ...string) error {
	unended, err := a.store.UnendedAlarms(ctx, identity, alarmTypes...)
	if err != nil || len(unended) == 0 {
		return err
	}
	if err := a.store.EndAlarms(ctx, alarmIDs(unended), a.now().UnixMilli()); err != nil {
		return err
	}
	for i := range unended {
		metrics.AlarmsEnded.WithLabelValues(unended[i].AlarmType).Inc()
	}
	return nil
}

func (a *Analyzer) notify(ctx context.Context, alarm *models.Alarm) {
	if a.notifier == nil {
		return
	}
	a.notifier.Publish(websocket.TopicAlarmData, models.Success(models.AlarmNotification{
		AlarmID:       alarm.ID,
		DeviceID:      alarm.DeviceID,
		DeviceName:    deviceName(ctx, a.store, alarm.DeviceID),
		AlarmType:     alarm.AlarmType,
		PointIdentity: alarm.PointID,
	}))
}

type deviceGetter interface {
	GetDevice(ctx context.Context, id int64) (*models.Device, error)
}

// deviceName falls back to a placeholder when the device is gone.
func deviceName(ctx context.Context, store deviceGetter, id int64) string {
	d, err := store.GetDevice(ctx, id)
	if err != nil {
		if !errors.Is(err, database.ErrDeviceNotFound) {
			logging.Warn().Err(err).Int64("device_id", id).Msg("Device lookup failed")
		}
		return database.UnknownDevicePrefix + strconv.FormatInt(id, 10)
	}
	return d.Name
}

func alarmIDs(alarms []models.Alarm) []int64 {
	ids := make([]int64, len(alarms))
	for i := range alarms {
		ids[i] = alarms[i].ID
	}
	return ids
}
