// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package wal

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/tomtom215/twinpulse/internal/config"
	"github.com/tomtom215/twinpulse/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Path = t.TempDir()
	cfg.SyncWrites = false
	cfg.RetryInterval = 10 * time.Millisecond
	cfg.RetryBackoff = time.Millisecond
	cfg.MaxRetries = 3
	cfg.CompactInterval = 10 * time.Millisecond
	cfg.MemTableSize = 1 << 20
	cfg.ValueThreshold = 1 << 10
	cfg.ValueLogFileSize = 1 << 20
	return cfg
}

func openTestWAL(t *testing.T, cfg Config) *BadgerWAL {
	t.Helper()
	w, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestWriteConfirmLifecycle(t *testing.T) {
	w := openTestWAL(t, testConfig(t))
	ctx := context.Background()

	id, err := w.Write(ctx, "sensor-1", []byte(`{"ID":"sensor-1"}`))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	pending, err := w.GetPending(ctx)
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id || pending[0].MessageID != "sensor-1" {
		t.Fatalf("pending = %+v", pending)
	}
	if string(pending[0].Payload) != `{"ID":"sensor-1"}` {
		t.Errorf("payload = %s", pending[0].Payload)
	}

	if err := w.Confirm(ctx, id); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := w.Confirm(ctx, id); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("second Confirm = %v, want ErrEntryNotFound", err)
	}

	stats := w.Stats()
	if stats.PendingCount != 0 || stats.ConfirmedCount != 1 {
		t.Errorf("stats = %+v, want 0 pending 1 confirmed", stats)
	}
	if stats.TotalWrites != 1 || stats.TotalConfirms != 1 {
		t.Errorf("totals = %+v", stats)
	}
}

func TestOpenRejectsOversizedValueThreshold(t *testing.T) {
	cfg := testConfig(t)
	cfg.ValueThreshold = 1 << 20
	w, err := Open(&cfg)
	if err == nil {
		_ = w.Close()
		t.Fatal("Open accepted a value threshold badger would reject")
	}
	var ce *ConfigError
	if !errors.As(err, &ce) || ce.Field != "ValueThreshold" {
		t.Errorf("Open error = %v, want ConfigError on ValueThreshold", err)
	}
}

func TestGetPendingWriteOrder(t *testing.T) {
	w := openTestWAL(t, testConfig(t))
	ctx := context.Background()

	var ids []string
	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		id, err := w.Write(ctx, msg, []byte(`{}`))
		if err != nil {
			t.Fatalf("Write: %v", err)
		}
		ids = append(ids, id)
	}

	pending, _ := w.GetPending(ctx)
	if len(pending) != len(ids) {
		t.Fatalf("len(pending) = %d", len(pending))
	}
	for i, e := range pending {
		if e.ID != ids[i] {
			t.Errorf("pending[%d] = %s, want %s", i, e.ID, ids[i])
		}
	}
}

func TestWriteValidation(t *testing.T) {
	w := openTestWAL(t, testConfig(t))
	if _, err := w.Write(context.Background(), "x", nil); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("Write(nil) = %v, want ErrEmptyPayload", err)
	}
	if err := w.Confirm(context.Background(), ""); !errors.Is(err, ErrEmptyEntryID) {
		t.Errorf("Confirm(\"\") = %v, want ErrEmptyEntryID", err)
	}
}

func TestClosedWAL(t *testing.T) {
	w := openTestWAL(t, testConfig(t))
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := w.Write(context.Background(), "x", []byte(`{}`)); !errors.Is(err, ErrWALClosed) {
		t.Errorf("Write after close = %v, want ErrWALClosed", err)
	}
	if _, err := w.GetPending(context.Background()); !errors.Is(err, ErrWALClosed) {
		t.Errorf("GetPending after close = %v", err)
	}
	if s := w.Stats(); s != (Stats{}) {
		t.Errorf("Stats after close = %+v", s)
	}
}

func TestClaims(t *testing.T) {
	w := openTestWAL(t, testConfig(t))
	if !w.TryClaimEntry("e1") {
		t.Fatal("first claim failed")
	}
	if w.TryClaimEntry("e1") {
		t.Error("second claim succeeded while held")
	}
	w.ReleaseEntry("e1")
	if !w.TryClaimEntry("e1") {
		t.Error("claim failed after release")
	}
}

func TestDeleteEntry(t *testing.T) {
	w := openTestWAL(t, testConfig(t))
	ctx := context.Background()
	id, _ := w.Write(ctx, "m", []byte(`{}`))

	if err := w.DeleteEntry(ctx, id); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if err := w.DeleteEntry(ctx, id); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("second DeleteEntry = %v, want ErrEntryNotFound", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"no path", func(c *Config) { c.Path = "" }, "Path"},
		{"zero interval", func(c *Config) { c.RetryInterval = 0 }, "RetryInterval"},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }, "MaxRetries"},
		{"bad gc ratio", func(c *Config) { c.GCRatio = 1 }, "GCRatio"},
		{"one compactor", func(c *Config) { c.NumCompactors = 1 }, "NumCompactors"},
		{"value threshold above batch", func(c *Config) { c.MemTableSize = 1 << 20; c.ValueThreshold = 1 << 20 }, "ValueThreshold"},
		{"small memtable default threshold", func(c *Config) { c.MemTableSize = 1 << 20 }, "ValueThreshold"},
		{"tiny value log", func(c *Config) { c.ValueLogFileSize = 1 << 10 }, "ValueLogFileSize"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() = %v", err)
				}
				return
			}
			var ce *ConfigError
			if !errors.As(err, &ce) || ce.Field != tt.field {
				t.Errorf("Validate() = %v, want ConfigError on %s", err, tt.field)
			}
		})
	}
}

func TestConfigFrom(t *testing.T) {
	section := config.WALConfig{
		Path:            "/tmp/w",
		RetryInterval:   time.Second,
		MaxRetries:      7,
		RetryBackoff:    2 * time.Second,
		CompactInterval: time.Minute,
		EntryTTL:        time.Hour,
	}
	cfg := ConfigFrom(&section)
	if cfg.Path != "/tmp/w" || cfg.MaxRetries != 7 || cfg.EntryTTL != time.Hour {
		t.Errorf("ConfigFrom = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
