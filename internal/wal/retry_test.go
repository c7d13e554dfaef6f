// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package wal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingPublisher struct {
	mu   sync.Mutex
	fail bool
	ids  []string
}

func (p *recordingPublisher) PublishEntry(_ context.Context, e *Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.ids = append(p.ids, e.MessageID)
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ids...)
}

func (p *recordingPublisher) setFail(fail bool) {
	p.mu.Lock()
	p.fail = fail
	p.mu.Unlock()
}

func TestRecoverRepublishesInOrder(t *testing.T) {
	w := openTestWAL(t, testConfig(t))
	ctx := context.Background()
	for _, id := range []string{"r1", "r2", "r3"} {
		if _, err := w.Write(ctx, id, []byte(`{}`)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	pub := &recordingPublisher{}
	res := NewRetryLoop(w, pub).Recover(ctx)
	if res.Succeeded != 3 {
		t.Fatalf("Recover = %+v, want 3 succeeded", res)
	}

	got := pub.published()
	want := []string{"r1", "r2", "r3"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("published[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if s := w.Stats(); s.PendingCount != 0 {
		t.Errorf("pending after recover = %d", s.PendingCount)
	}
}

func TestRetryDropsAfterMaxRetries(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxRetries = 2
	w := openTestWAL(t, cfg)
	ctx := context.Background()
	if _, err := w.Write(ctx, "doomed", []byte(`{}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	pub := &recordingPublisher{fail: true}
	loop := NewRetryLoop(w, pub)

	for i := range 2 {
		if res := loop.Recover(ctx); res.Failed != 1 {
			t.Fatalf("pass %d = %+v, want 1 failed", i+1, res)
		}
	}
	if res := loop.Recover(ctx); res.Dropped != 1 {
		t.Fatalf("third pass = %+v, want 1 dropped", res)
	}
	if s := w.Stats(); s.PendingCount != 0 {
		t.Errorf("pending = %d after drop", s.PendingCount)
	}
}

func TestRetryPendingHonoursBackoff(t *testing.T) {
	cfg := testConfig(t)
	cfg.RetryBackoff = time.Hour
	w := openTestWAL(t, cfg)
	ctx := context.Background()
	if _, err := w.Write(ctx, "slow", []byte(`{}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	pub := &recordingPublisher{fail: true}
	loop := NewRetryLoop(w, pub)
	if res := loop.RetryPending(ctx); res.Failed != 1 {
		t.Fatalf("first pass = %+v", res)
	}

	pub.setFail(false)
	if res := loop.RetryPending(ctx); res.Skipped != 1 {
		t.Errorf("second pass = %+v, want skipped by backoff", res)
	}
	if res := loop.Recover(ctx); res.Succeeded != 1 {
		t.Errorf("Recover = %+v, want success ignoring backoff", res)
	}
}

func TestRetrySkipsClaimedEntries(t *testing.T) {
	w := openTestWAL(t, testConfig(t))
	ctx := context.Background()
	id, _ := w.Write(ctx, "busy", []byte(`{}`))

	w.TryClaimEntry(id)
	defer w.ReleaseEntry(id)

	if res := NewRetryLoop(w, &recordingPublisher{}).Recover(ctx); res.Skipped != 1 {
		t.Errorf("Recover = %+v, want claimed entry skipped", res)
	}
}

func TestRetryLoopStartStop(t *testing.T) {
	w := openTestWAL(t, testConfig(t))
	ctx := context.Background()
	if _, err := w.Write(ctx, "bg", []byte(`{}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	pub := &recordingPublisher{}
	loop := NewRetryLoop(w, pub)
	if err := loop.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := loop.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if !loop.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}

	deadline := time.After(5 * time.Second)
	for len(pub.published()) == 0 {
		select {
		case <-deadline:
			t.Fatal("background loop never republished")
		case <-time.After(5 * time.Millisecond):
		}
	}

	loop.Stop()
	loop.Stop()
	if loop.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}

func TestBackoff(t *testing.T) {
	cfg := testConfig(t)
	cfg.RetryBackoff = time.Second
	cfg.MaxBackoff = 10 * time.Second
	loop := &RetryLoop{config: cfg}

	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second},
		{60, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := loop.backoff(tt.attempts); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempts, got, tt.want)
		}
	}
}
