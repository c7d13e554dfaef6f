// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package telemetry

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/tomtom215/twinpulse/internal/database"
	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/metrics"
	"github.com/tomtom215/twinpulse/internal/models"
	"github.com/tomtom215/twinpulse/internal/websocket"
)

// PointLookup reads the point registry.
type PointLookup interface {
	ByIdentity(identity string) []models.Point
	Published(identity string) bool
}

// PointTracker records collection statistics and EStop failures.
type PointTracker interface {
	UpdateCollectionStats(ctx context.Context, identities []string) error
	ActiveFailure(ctx context.Context, pointID int64) (*models.FailureRecord, error)
	RecordFailure(ctx context.Context, pointID int64, description, value string) (*models.FailureRecord, error)
	ResolveFailure(ctx context.Context, recordID int64, description string) error
}

// ReadingStore persists point values.
type ReadingStore interface {
	InsertReadings(ctx context.Context, readings []database.Reading) error
}

// TrialTracker opens and closes trials from TestStart.
type TrialTracker interface {
	OnReading(ctx context.Context, reading *models.SensorData) error
}

// AlarmSubmitter queues a reading for asynchronous alarm analysis.
type AlarmSubmitter interface {
	Submit(ctx context.Context, reading *models.SensorData) error
}

// Notifier pushes frames to WebSocket subscribers.
type Notifier interface {
	Publish(topic string, payload any)
}

// Deps are the collaborators of the pipeline. Every field is required.
type Deps struct {
	Points   PointLookup
	Tracker  PointTracker
	Readings ReadingStore
	Trials   TrialTracker
	Alarms   AlarmSubmitter
	Notifier Notifier
}

// Pipeline processes consumed readings. It implements
// eventprocessor.ReadingProcessor.
type Pipeline struct {
	Deps
	now func() time.Time
}

// NewPipeline validates deps and returns the pipeline.
func NewPipeline(deps Deps) (*Pipeline, error) {
	switch {
	case deps.Points == nil:
		return nil, fmt.Errorf("%w: points", ErrMissingDependency)
	case deps.Tracker == nil:
		return nil, fmt.Errorf("%w: point tracker", ErrMissingDependency)
	case deps.Readings == nil:
		return nil, fmt.Errorf("%w: reading store", ErrMissingDependency)
	case deps.Trials == nil:
		return nil, fmt.Errorf("%w: trials", ErrMissingDependency)
	case deps.Alarms == nil:
		return nil, fmt.Errorf("%w: alarms", ErrMissingDependency)
	case deps.Notifier == nil:
		return nil, fmt.Errorf("%w: notifier", ErrMissingDependency)
	}
	return &Pipeline{Deps: deps, now: time.Now}, nil
}

// Process runs one reading through the pipeline. Invalid readings are
// dropped. Failures of individual side effects are logged and counted and
// never stop the remaining steps, so Process only fails on a nil reading.
func (p *Pipeline) Process(ctx context.Context, reading *models.SensorData) error {
	if reading == nil {
		return ErrNilReading
	}
	start := time.Now()
	defer func() { metrics.SensorPipelineDuration.Observe(time.Since(start).Seconds()) }()

	log := logging.Ctx(ctx)

	if !reading.Valid() {
		metrics.SensorReadingsInvalid.Inc()
		log.Warn().Str("sensor_id", reading.ID).Msg("Reading without HeatFlux or CoolingWater_In_Temp dropped")
		return nil
	}
	metrics.SensorReadingsProcessed.Inc()

	roundPoints(reading.Points)

	p.step(ctx, "estop", p.checkEStop)(reading)
	p.checkTestPhase(reading)

	reading.Stamp(p.now())

	p.step(ctx, "persist", p.persist)(reading)
	p.step(ctx, "trial", p.Trials.OnReading)(reading)
	p.step(ctx, "collection", p.updateCollectionStats)(reading)
	p.step(ctx, "alarm", p.Alarms.Submit)(reading)

	filtered := p.filterPublished(reading)
	if filtered.Valid() {
		p.Notifier.Publish(websocket.TopicSensorData, models.Success(filtered))
	} else {
		log.Debug().Str("sensor_id", reading.ID).Msg("No published points to push")
	}
	return nil
}

// step wraps a side effect so its error is logged and counted by stage.
func (p *Pipeline) step(ctx context.Context, stage string, fn func(context.Context, *models.SensorData) error) func(*models.SensorData) {
	return func(reading *models.SensorData) {
		if err := fn(ctx, reading); err != nil {
			metrics.SensorPipelineErrors.WithLabelValues(stage).Inc()
			logging.Ctx(ctx).Error().Err(err).Str("stage", stage).Str("sensor_id", reading.ID).Msg("Pipeline step failed")
		}
	}
}

// roundPoints rounds every numeric value to two decimals in place.
func roundPoints(points map[string]any) {
	for k, v := range points {
		if r, ok := models.Round2(v); ok {
			points[k] = r
		}
	}
}

func (p *Pipeline) checkEStop(ctx context.Context, reading *models.SensorData) error {
	value, present := reading.Points[models.PointEStop]
	if !present {
		return nil
	}
	pts := p.Points.ByIdentity(models.PointEStop)
	if len(pts) == 0 {
		logging.Ctx(ctx).Warn().Msg("Reading carries EStop but no EStop point is registered")
		return nil
	}
	point := pts[0]

	switch value {
	case true:
		active, err := p.Tracker.ActiveFailure(ctx, point.ID)
		if err != nil || active != nil {
			return err
		}
		rec, err := p.Tracker.RecordFailure(ctx, point.ID,
			"EStop点位值为true，触发紧急停止状态，值为: true", models.FormatValue(value))
		if err != nil {
			return err
		}
		logging.Ctx(ctx).Info().Int64("point_id", point.ID).Int64("record_id", rec.ID).Msg("EStop engaged, failure recorded")
	case false, nil:
		active, err := p.Tracker.ActiveFailure(ctx, point.ID)
		if err != nil || active == nil {
			return err
		}
		if err := p.Tracker.ResolveFailure(ctx, active.ID,
			"EStop点位值恢复为false，故障结束，值为: "+models.FormatValue(value)); err != nil {
			return err
		}
		logging.Ctx(ctx).Info().Int64("point_id", point.ID).Int64("record_id", active.ID).Msg("EStop released, failure resolved")
	}
	return nil
}

func (p *Pipeline) checkTestPhase(reading *models.SensorData) {
	phase, ok := reading.Points[models.PointTestPhase].(string)
	if !ok {
		return
	}
	if resp, ok := models.NewTestPhaseResponse(phase, p.now().UnixMilli()); ok {
		p.Notifier.Publish(websocket.TopicTestPhase, models.Success(resp))
	}
}

// truncateValue cuts v to at most models.MaxStoredValueLen characters.
func truncateValue(v string) string {
	if utf8.RuneCountInString(v) <= models.MaxStoredValueLen {
		return v
	}
	return string([]rune(v)[:models.MaxStoredValueLen])
}

func (p *Pipeline) persist(ctx context.Context, reading *models.SensorData) error {
	ts := reading.RealTimestamp()
	rows := make([]database.Reading, 0, len(reading.Points))
	for key, value := range reading.Points {
		rows = append(rows, database.Reading{
			TS:         ts,
			PointKey:   key,
			DeviceName: reading.DeviceName,
			Value:      truncateValue(models.FormatValue(value)),
			SensorID:   reading.ID,
		})
	}
	if err := p.Readings.InsertReadings(ctx, rows); err != nil {
		return err
	}
	metrics.SensorPointsPersisted.Add(float64(len(rows)))
	return nil
}

func (p *Pipeline) updateCollectionStats(ctx context.Context, reading *models.SensorData) error {
	identities := make([]string, 0, len(reading.Points))
	for key := range reading.Points {
		if len(p.Points.ByIdentity(key)) > 0 {
			identities = append(identities, key)
		}
	}
	if len(identities) == 0 {
		return nil
	}
	return p.Tracker.UpdateCollectionStats(ctx, identities)
}

// filterPublished keeps TestPhase, EStop and every point with a published
// registration.
func (p *Pipeline) filterPublished(reading *models.SensorData) *models.SensorData {
	kept := make(map[string]any, len(reading.Points))
	for key, value := range reading.Points {
		if key == models.PointTestPhase || key == models.PointEStop || p.Points.Published(key) {
			kept[key] = value
		}
	}
	return reading.WithPoints(kept)
}
