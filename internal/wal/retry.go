// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package wal

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/metrics"
)

// Publisher republishes a buffered entry.
type Publisher interface {
	PublishEntry(ctx context.Context, entry *Entry) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, entry *Entry) error

// PublishEntry implements Publisher.
func (f PublisherFunc) PublishEntry(ctx context.Context, entry *Entry) error {
	return f(ctx, entry)
}

// RetryLoop republishes pending entries in the background.
type RetryLoop struct {
	wal       *BadgerWAL
	publisher Publisher
	config    Config

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	stopDone chan struct{}
}

// NewRetryLoop creates a retry loop for w.
func NewRetryLoop(w *BadgerWAL, publisher Publisher) *RetryLoop {
	return &RetryLoop{
		wal:       w,
		publisher: publisher,
		config:    w.Config(),
	}
}

// Start launches the loop. Calling Start on a running loop is a no-op.
func (r *RetryLoop) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.stopDone = make(chan struct{})

	go r.run(loopCtx, r.stopDone)

	logging.Info().
		Dur("interval", r.config.RetryInterval).
		Int("max_retries", r.config.MaxRetries).
		Msg("WAL retry loop started")
	return nil
}

// Stop cancels the loop and waits for it to exit.
func (r *RetryLoop) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.cancel()
	done := r.stopDone
	r.running = false
	r.mu.Unlock()

	<-done
	logging.Info().Msg("WAL retry loop stopped")
}

// IsRunning reports whether the loop is active.
func (r *RetryLoop) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *RetryLoop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.config.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RetryPending(ctx)
		}
	}
}

// RetryResult summarises one pass over the pending entries.
type RetryResult struct {
	Succeeded int
	Failed    int
	Dropped   int
	Skipped   int
}

// RetryPending runs one pass over the pending entries, honouring backoff.
func (r *RetryLoop) RetryPending(ctx context.Context) RetryResult {
	return r.pass(ctx, false)
}

// Recover republishes every pending entry once, ignoring backoff. It is run
// on startup before new readings are accepted.
func (r *RetryLoop) Recover(ctx context.Context) RetryResult {
	res := r.pass(ctx, true)
	if res.Succeeded+res.Failed+res.Dropped > 0 {
		logging.Info().
			Int("recovered", res.Succeeded).
			Int("failed", res.Failed).
			Int("dropped", res.Dropped).
			Msg("WAL recovery complete")
	}
	return res
}

func (r *RetryLoop) pass(ctx context.Context, ignoreBackoff bool) RetryResult {
	var res RetryResult

	entries, err := r.wal.GetPending(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("WAL retry: failed to list pending entries")
		return res
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return res
		}
		switch r.processEntry(ctx, entry, ignoreBackoff) {
		case outcomeSucceeded:
			res.Succeeded++
		case outcomeFailed:
			res.Failed++
		case outcomeDropped:
			res.Dropped++
		case outcomeSkipped:
			res.Skipped++
		}
	}

	if res.Succeeded > 0 || res.Failed > 0 || res.Dropped > 0 {
		logging.Info().
			Int("succeeded", res.Succeeded).
			Int("failed", res.Failed).
			Int("dropped", res.Dropped).
			Msg("WAL retry pass complete")
	}
	return res
}

type outcome int

const (
	outcomeSucceeded outcome = iota
	outcomeFailed
	outcomeDropped
	outcomeSkipped
)

func (r *RetryLoop) processEntry(ctx context.Context, entry *Entry, ignoreBackoff bool) outcome {
	if !r.wal.TryClaimEntry(entry.ID) {
		return outcomeSkipped
	}
	defer r.wal.ReleaseEntry(entry.ID)

	if time.Since(entry.CreatedAt) > r.config.EntryTTL || entry.Attempts >= r.config.MaxRetries {
		logging.Warn().
			Str("entry_id", entry.ID).
			Str("message_id", entry.MessageID).
			Int("attempts", entry.Attempts).
			Str("last_error", entry.LastError).
			Msg("WAL dropping entry")
		if err := r.wal.DeleteEntry(ctx, entry.ID); err != nil {
			logging.Error().Err(err).Str("entry_id", entry.ID).Msg("WAL failed to delete entry")
		}
		metrics.WALExpired.Inc()
		return outcomeDropped
	}

	if !ignoreBackoff && !r.readyForRetry(entry) {
		return outcomeSkipped
	}

	pubCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err := r.publisher.PublishEntry(pubCtx, entry)
	cancel()
	metrics.RecordWALRetry(err == nil)

	if err != nil {
		logging.Warn().
			Err(err).
			Str("entry_id", entry.ID).
			Int("attempt", entry.Attempts+1).
			Msg("WAL republish failed")
		if updateErr := r.wal.UpdateAttempt(ctx, entry.ID, err.Error()); updateErr != nil {
			logging.Error().Err(updateErr).Str("entry_id", entry.ID).Msg("WAL failed to record attempt")
		}
		return outcomeFailed
	}

	if err := r.wal.Confirm(ctx, entry.ID); err != nil {
		logging.Error().Err(err).Str("entry_id", entry.ID).Msg("WAL failed to confirm republished entry")
		return outcomeFailed
	}
	return outcomeSucceeded
}

func (r *RetryLoop) readyForRetry(entry *Entry) bool {
	if entry.LastAttemptAt.IsZero() {
		return true
	}
	return time.Since(entry.LastAttemptAt) >= r.backoff(entry.Attempts)
}

// backoff returns RetryBackoff * 2^attempts, capped at MaxBackoff.
func (r *RetryLoop) backoff(attempts int) time.Duration {
	maxBackoff := r.config.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 5 * time.Minute
	}
	if attempts > 50 {
		return maxBackoff
	}
	d := time.Duration(float64(r.config.RetryBackoff) * math.Pow(2, float64(attempts)))
	if d < 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}
