// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package wal

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/metrics"
)

// Compactor periodically deletes confirmed and expired entries and runs
// value-log GC.
type Compactor struct {
	wal    *BadgerWAL
	config Config

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	stopDone chan struct{}
}

// NewCompactor creates a compactor for w.
func NewCompactor(w *BadgerWAL) *Compactor {
	return &Compactor{wal: w, config: w.Config()}
}

// Start launches the compactor. Calling Start twice is a no-op.
func (c *Compactor) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true
	c.stopDone = make(chan struct{})
	go c.run(loopCtx, c.stopDone)
	return nil
}

// Stop cancels the compactor and waits for it to exit.
func (c *Compactor) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.cancel()
	done := c.stopDone
	c.running = false
	c.mu.Unlock()
	<-done
}

// IsRunning reports whether the compactor is active.
func (c *Compactor) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Compactor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.config.CompactInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Compact()
		}
	}
}

// Compact deletes confirmed entries and pending entries older than EntryTTL,
// then runs GC. It returns the number of entries removed.
func (c *Compactor) Compact() int64 {
	start := time.Now()

	confirmed, err := c.deleteMatching(prefixConfirmed, func(*Entry) bool { return true })
	if err != nil {
		logging.Error().Err(err).Msg("WAL compaction failed to delete confirmed entries")
	}

	cutoff := time.Now().Add(-c.config.EntryTTL)
	expired, err := c.deleteMatching(prefixPending, func(e *Entry) bool { return e.CreatedAt.Before(cutoff) })
	if err != nil {
		logging.Error().Err(err).Msg("WAL compaction failed to delete expired entries")
	}
	if expired > 0 {
		metrics.WALExpired.Add(float64(expired))
		metrics.WALPendingEntries.Sub(float64(expired))
	}

	if err := c.wal.RunGC(); err != nil {
		logging.Error().Err(err).Msg("WAL compaction GC error")
	}
	c.wal.markCompacted(time.Now())

	if total := confirmed + expired; total > 0 {
		logging.Info().
			Int64("confirmed", confirmed).
			Int64("expired", expired).
			Dur("duration", time.Since(start)).
			Msg("WAL compaction removed entries")
	}
	return confirmed + expired
}

func (c *Compactor) deleteMatching(prefix string, match func(*Entry) bool) (int64, error) {
	if err := c.wal.checkOpen(); err != nil {
		return 0, err
	}

	var keys [][]byte
	err := c.wal.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			var entry Entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				continue
			}
			if match(&entry) {
				keys = append(keys, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil || len(keys) == 0 {
		return 0, err
	}

	wb := c.wal.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}
	return int64(len(keys)), nil
}
