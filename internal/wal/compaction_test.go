// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package wal

import (
	"context"
	"testing"
)

func TestCompactRemovesConfirmed(t *testing.T) {
	w := openTestWAL(t, testConfig(t))
	ctx := context.Background()

	keep, _ := w.Write(ctx, "keep", []byte(`{}`))
	done, _ := w.Write(ctx, "done", []byte(`{}`))
	if err := w.Confirm(ctx, done); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	removed := NewCompactor(w).Compact()
	if removed != 1 {
		t.Errorf("Compact() removed %d, want 1", removed)
	}

	stats := w.Stats()
	if stats.ConfirmedCount != 0 || stats.PendingCount != 1 {
		t.Errorf("stats = %+v", stats)
	}
	pending, _ := w.GetPending(ctx)
	if len(pending) != 1 || pending[0].ID != keep {
		t.Errorf("pending = %+v", pending)
	}
	if stats.LastCompaction.IsZero() {
		t.Error("LastCompaction not set")
	}
}

func TestCompactorStartStop(t *testing.T) {
	w := openTestWAL(t, testConfig(t))
	c := NewCompactor(w)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !c.IsRunning() {
		t.Error("not running after Start")
	}
	c.Stop()
	if c.IsRunning() {
		t.Error("running after Stop")
	}
}
