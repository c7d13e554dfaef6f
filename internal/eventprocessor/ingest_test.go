// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package eventprocessor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/twinpulse/internal/models"
	"github.com/tomtom215/twinpulse/internal/wal"
)

func openWAL(t *testing.T) *wal.BadgerWAL {
	t.Helper()
	cfg := wal.DefaultConfig()
	cfg.Path = t.TempDir()
	cfg.SyncWrites = false
	cfg.MemTableSize = 1 << 20
	cfg.ValueThreshold = 1 << 10
	cfg.ValueLogFileSize = 1 << 20
	w, err := wal.Open(&cfg)
	if err != nil {
		t.Fatalf("wal.Open: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestWALPublisherConfirmsOnSuccess(t *testing.T) {
	pubsub := newGoChannel()
	defer pubsub.Close()
	msgs, _ := pubsub.Subscribe(context.Background(), SubjectSensorData)

	w := openWAL(t)
	pub, _ := WrapPublisher(pubsub)
	sink, err := NewWALPublisher(pub, w)
	if err != nil {
		t.Fatalf("NewWALPublisher: %v", err)
	}

	if err := sink.Send(context.Background(), &models.SensorData{ID: "sensor-w1"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case msg := <-msgs:
		if msg.UUID != "sensor-w1" {
			t.Errorf("UUID = %q", msg.UUID)
		}
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("reading not published")
	}

	if s := w.Stats(); s.PendingCount != 0 || s.ConfirmedCount != 1 {
		t.Errorf("WAL stats = %+v, want confirmed", s)
	}
}

func TestWALPublisherKeepsEntryOnFailure(t *testing.T) {
	w := openWAL(t)
	inner := &failingPublisher{err: errors.New("broker down")}
	pub, _ := WrapPublisher(inner)
	sink, _ := NewWALPublisher(pub, w)

	if err := sink.Send(context.Background(), &models.SensorData{ID: "sensor-w2"}); err != nil {
		t.Fatalf("Send should succeed once the WAL holds the reading: %v", err)
	}
	if s := w.Stats(); s.PendingCount != 1 {
		t.Fatalf("pending = %d, want 1", s.PendingCount)
	}

	inner.err = nil
	res := wal.NewRetryLoop(w, sink.EntryPublisher()).Recover(context.Background())
	if res.Succeeded != 1 {
		t.Errorf("Recover = %+v, want 1 succeeded", res)
	}
	if inner.calls != 2 {
		t.Errorf("broker calls = %d, want 2", inner.calls)
	}
}

func TestNewWALPublisherValidation(t *testing.T) {
	if _, err := NewWALPublisher(nil, nil); !errors.Is(err, ErrNilPublisher) {
		t.Errorf("error = %v, want ErrNilPublisher", err)
	}
	pub, _ := WrapPublisher(&failingPublisher{})
	if _, err := NewWALPublisher(pub, nil); err == nil {
		t.Error("expected error for nil WAL")
	}
}
