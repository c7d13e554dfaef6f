// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package eventprocessor

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/twinpulse/internal/models"
)

func startEmbedded(t *testing.T) *EmbeddedServer {
	t.Helper()
	if testing.Short() {
		t.Skip("embedded NATS server skipped in short mode")
	}

	cfg := DefaultServerConfig()
	cfg.Port = -1
	cfg.StoreDir = t.TempDir()
	cfg.JetStreamMaxStore = 64 << 20

	srv, err := NewEmbeddedServer(&cfg)
	if err != nil {
		t.Fatalf("NewEmbeddedServer: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

// testStreamConfig fits the stream inside startEmbedded's store limit.
func testStreamConfig() StreamConfig {
	cfg := DefaultStreamConfig()
	cfg.MaxBytes = 32 << 20
	return cfg
}

func TestEmbeddedServerEnsureStream(t *testing.T) {
	srv := startEmbedded(t)
	if !srv.IsRunning() || !srv.JetStreamEnabled() {
		t.Fatal("embedded server not running with JetStream")
	}

	nc, err := natsgo.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("jetstream.New: %v", err)
	}

	streamCfg := testStreamConfig()
	streams, err := NewStreamInitializer(js, &streamCfg)
	if err != nil {
		t.Fatalf("NewStreamInitializer: %v", err)
	}

	ctx := context.Background()
	for i := range 2 {
		if _, err := streams.EnsureStream(ctx); err != nil {
			t.Fatalf("EnsureStream #%d: %v", i+1, err)
		}
	}
	if !streams.IsHealthy(ctx) {
		t.Error("stream not healthy after EnsureStream")
	}
	if h := streams.HealthCheck(ctx); !h.Healthy {
		t.Errorf("HealthCheck = %+v", h)
	}
}

func TestPublisherDeduplicatesByReadingID(t *testing.T) {
	srv := startEmbedded(t)

	nc, err := natsgo.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer nc.Close()
	js, _ := jetstream.New(nc)

	streamCfg := testStreamConfig()
	streams, _ := NewStreamInitializer(js, &streamCfg)
	stream, err := streams.EnsureStream(context.Background())
	if err != nil {
		t.Fatalf("EnsureStream: %v", err)
	}

	pub, err := NewPublisher(DefaultPublisherConfig(srv.ClientURL()), watermill.NopLogger{})
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	defer pub.Close()

	reading := &models.SensorData{ID: "sensor-dup", Timestamp: 1, Points: map[string]any{"Valve": true}}
	for range 3 {
		if err := pub.PublishReading(context.Background(), reading); err != nil {
			t.Fatalf("PublishReading: %v", err)
		}
	}

	info, err := stream.Info(context.Background())
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.State.Msgs != 1 {
		t.Errorf("stream holds %d messages, want 1 after duplicate publishes", info.State.Msgs)
	}
}

func TestNewStreamInitializerValidation(t *testing.T) {
	if _, err := NewStreamInitializer(nil, &StreamConfig{}); err == nil {
		t.Error("expected error for nil JetStream")
	}
}
