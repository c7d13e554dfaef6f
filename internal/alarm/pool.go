// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package alarm

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/metrics"
	"github.com/tomtom215/twinpulse/internal/models"
)

// keyedPool runs jobs on a fixed set of workers. Jobs with the same key
// always land on the same worker, so they run in submission order.
type keyedPool struct {
	workers   int
	queueSize int
	handle    func(ctx context.Context, e entry)

	mu      sync.RWMutex
	queues  []chan entry
	running bool
}

func newKeyedPool(workers, queueSize int, handle func(ctx context.Context, e entry)) *keyedPool {
	return &keyedPool{workers: workers, queueSize: queueSize, handle: handle}
}

func (p *keyedPool) run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrAnalyzerRunning
	}
	queues := make([]chan entry, p.workers)
	for i := range queues {
		queues[i] = make(chan entry, p.queueSize)
	}
	p.queues = queues
	p.running = true
	p.mu.Unlock()

	var wg sync.WaitGroup
	for _, q := range queues {
		wg.Add(1)
		go func(q chan entry) {
			defer wg.Done()
			for e := range q {
				metrics.AlarmQueueDepth.Dec()
				p.handle(ctx, e)
			}
		}(q)
	}

	<-ctx.Done()

	// Taking the write lock waits out in-flight submits.
	p.mu.Lock()
	p.running = false
	p.queues = nil
	p.mu.Unlock()
	for _, q := range queues {
		close(q)
	}
	wg.Wait()
	return ctx.Err()
}

// submit blocks while the key's queue is full. It returns false when the pool
// is stopped or ctx ends first.
func (p *keyedPool) submit(ctx context.Context, key string, e entry) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running {
		return false
	}
	q := p.queues[xxhash.Sum64String(key)%uint64(len(p.queues))]
	select {
	case q <- e:
		metrics.AlarmQueueDepth.Inc()
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *keyedPool) isRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// RunWithContext starts the workers and blocks until ctx is canceled. Queued
// entries are analysed before it returns.
func (a *Analyzer) RunWithContext(ctx context.Context) error {
	logging.Info().Int("workers", a.cfg.Workers).Int("queue_size", a.cfg.QueueSize).Msg("Alarm analyzer started")
	err := a.pool.run(ctx)
	logging.Info().Msg("Alarm analyzer stopped")
	return err
}

// IsRunning reports whether the worker pool accepts readings.
func (a *Analyzer) IsRunning() bool {
	return a.pool.isRunning()
}

// Submit queues every point entry of reading that has an alarmable point.
// Entries are keyed by point identity. It returns ErrAnalyzerNotActive when
// the pool is not running; the entries are counted as dropped.
func (a *Analyzer) Submit(ctx context.Context, reading *models.SensorData) error {
	for _, e := range entriesOf(reading) {
		if len(a.alarmable(e.identity)) == 0 {
			continue
		}
		if !a.pool.submit(ctx, e.identity, e) {
			metrics.AlarmAnalysisDropped.Inc()
			if !a.pool.isRunning() {
				return ErrAnalyzerNotActive
			}
			return ctx.Err()
		}
	}
	return nil
}
