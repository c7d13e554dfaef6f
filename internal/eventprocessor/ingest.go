// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package eventprocessor

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/models"
	"github.com/tomtom215/twinpulse/internal/wal"
)

// ReadingSink accepts ingested readings. The REST endpoint and the MQTT
// bridge both send through one.
type ReadingSink interface {
	Send(ctx context.Context, reading *models.SensorData) error
}

// Send publishes the reading straight to the broker.
func (p *Publisher) Send(ctx context.Context, reading *models.SensorData) error {
	return p.PublishReading(ctx, reading)
}

// WALPublisher writes every reading to the WAL before publishing it.
//
//  1. Write to WAL
//  2. Publish
//  3. On success Confirm; on failure the entry stays for the RetryLoop
type WALPublisher struct {
	pub *Publisher
	wal *wal.BadgerWAL
}

// NewWALPublisher wraps pub with w.
func NewWALPublisher(pub *Publisher, w *wal.BadgerWAL) (*WALPublisher, error) {
	if pub == nil {
		return nil, ErrNilPublisher
	}
	if w == nil {
		return nil, errors.New("WAL required")
	}
	return &WALPublisher{pub: pub, wal: w}, nil
}

// Send implements ReadingSink. A failed publish is not an error once the
// reading is in the WAL.
func (p *WALPublisher) Send(ctx context.Context, reading *models.SensorData) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}

	entryID, err := p.wal.Write(ctx, reading.ID, payload)
	if err != nil {
		logging.Error().Err(err).Str("sensor_id", reading.ID).Msg("WAL write failed, publishing without it")
		return p.pub.PublishPayload(ctx, reading.ID, payload)
	}

	if !p.wal.TryClaimEntry(entryID) {
		return nil
	}
	defer p.wal.ReleaseEntry(entryID)

	if err := p.pub.PublishPayload(ctx, reading.ID, payload); err != nil {
		logging.Warn().
			Err(err).
			Str("sensor_id", reading.ID).
			Str("wal_entry_id", entryID).
			Msg("publish failed, reading kept in WAL for retry")
		return nil
	}

	if err := p.wal.Confirm(ctx, entryID); err != nil {
		logging.Warn().Err(err).Str("wal_entry_id", entryID).Msg("WAL confirm failed")
	}
	return nil
}

// EntryPublisher republishes WAL entries for the RetryLoop.
func (p *WALPublisher) EntryPublisher() wal.Publisher {
	return wal.PublisherFunc(func(ctx context.Context, entry *wal.Entry) error {
		return p.pub.PublishPayload(ctx, entry.MessageID, entry.Payload)
	})
}
