// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package main

import (
	"context"

	"github.com/tomtom215/twinpulse/internal/config"
	"github.com/tomtom215/twinpulse/internal/eventprocessor"
	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/wal"
)

// WALComponents holds WAL-related components for lifecycle management.
type WALComponents struct {
	wal       *wal.BadgerWAL
	retryLoop *wal.RetryLoop
	compactor *wal.Compactor
	sink      *eventprocessor.WALPublisher
}

// InitWAL opens the ingest WAL in front of pub. It returns nil when the WAL
// is disabled.
//
// Entries left pending by a previous run are republished once before the
// retry loop takes over.
func InitWAL(ctx context.Context, cfg *config.WALConfig, pub *eventprocessor.Publisher) (*WALComponents, error) {
	if !cfg.Enabled {
		logging.Warn().Msg("WAL disabled (WAL_ENABLED=false). Readings may be lost if the broker is down.")
		return nil, nil
	}

	walCfg := wal.ConfigFrom(cfg)
	if err := walCfg.Validate(); err != nil {
		return nil, err
	}

	logging.Info().Str("path", walCfg.Path).Bool("sync_writes", walCfg.SyncWrites).Msg("Initializing WAL...")

	w, err := wal.Open(&walCfg)
	if err != nil {
		return nil, err
	}

	sink, err := eventprocessor.NewWALPublisher(pub, w)
	if err != nil {
		if closeErr := w.Close(); closeErr != nil {
			logging.Error().Err(closeErr).Msg("Error closing WAL after publisher creation failure")
		}
		return nil, err
	}

	components := &WALComponents{
		wal:       w,
		retryLoop: wal.NewRetryLoop(w, sink.EntryPublisher()),
		compactor: wal.NewCompactor(w),
		sink:      sink,
	}

	result := components.retryLoop.RetryPending(ctx)
	if result.Succeeded+result.Failed+result.Dropped > 0 {
		logging.Info().
			Int("recovered", result.Succeeded).
			Int("failed", result.Failed).
			Int("dropped", result.Dropped).
			Msg("WAL recovery completed")
	}

	stats := w.Stats()
	logging.Info().
		Int64("pending", stats.PendingCount).
		Msg("WAL initialized")

	return components, nil
}

// Sink returns the WAL-backed ReadingSink.
func (c *WALComponents) Sink() *eventprocessor.WALPublisher {
	return c.sink
}

// Close closes the WAL. The retry loop and compactor must be stopped first.
func (c *WALComponents) Close() {
	if c == nil {
		return
	}
	if err := c.wal.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing WAL")
	}
}
