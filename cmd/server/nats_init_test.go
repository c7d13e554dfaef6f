// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package main

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/tomtom215/twinpulse/internal/config"
	"github.com/tomtom215/twinpulse/internal/eventprocessor"
	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

type recordingProcessor struct {
	got chan *models.SensorData
}

func (p *recordingProcessor) Process(_ context.Context, r *models.SensorData) error {
	p.got <- r
	return nil
}

func inProcessConfig() *config.Config {
	return &config.Config{
		NATS: config.NATSConfig{
			Enabled:                    false,
			RouterRetryCount:           1,
			RouterRetryInitialInterval: 10 * time.Millisecond,
			RouterCloseTimeout:         time.Second,
		},
	}
}

func TestBrokerComponents_InProcessRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker, err := InitBroker(ctx, inProcessConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer broker.Shutdown(context.Background())

	proc := &recordingProcessor{got: make(chan *models.SensorData, 1)}
	factory := broker.RouterFactory(proc)

	// Two rounds: the second router must still receive after the first is
	// closed, which is what a supervisor restart does.
	for round := range 2 {
		mr, err := factory()
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		router, ok := mr.(*eventprocessor.Router)
		if !ok {
			t.Fatalf("factory returned %T", mr)
		}
		go func() { _ = router.Run(ctx) }()

		select {
		case <-router.Running():
		case <-time.After(5 * time.Second):
			t.Fatalf("round %d: router did not start", round)
		}

		reading := &models.SensorData{ID: "r-1", DeviceName: "rig", Timestamp: 1700000000000}
		if err := broker.Publisher().Send(ctx, reading); err != nil {
			t.Fatalf("round %d: send: %v", round, err)
		}

		select {
		case got := <-proc.got:
			if got.DeviceName != "rig" || got.Timestamp != reading.Timestamp {
				t.Errorf("round %d: got %+v", round, got)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("round %d: reading not processed", round)
		}

		_ = router.Close()
	}
}

func TestBrokerComponents_InProcessKeepsOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker, err := InitBroker(ctx, inProcessConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer broker.Shutdown(context.Background())

	const n = 100
	proc := &recordingProcessor{got: make(chan *models.SensorData, n)}
	mr, err := broker.RouterFactory(proc)()
	if err != nil {
		t.Fatal(err)
	}
	router := mr.(*eventprocessor.Router)
	go func() { _ = router.Run(ctx) }()
	defer func() { _ = router.Close() }()

	select {
	case <-router.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}

	for i := range n {
		reading := &models.SensorData{ID: fmt.Sprintf("r-%03d", i), Timestamp: int64(i)}
		if err := broker.Publisher().Send(ctx, reading); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	for i := range n {
		select {
		case got := <-proc.got:
			if want := fmt.Sprintf("r-%03d", i); got.ID != want {
				t.Fatalf("position %d: got %s, want %s", i, got.ID, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("reading %d not processed", i)
		}
	}
}

func TestBrokerComponents_RouterHealthBeforeStart(t *testing.T) {
	broker, err := InitBroker(context.Background(), inProcessConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer broker.Shutdown(context.Background())

	h := eventprocessor.NewHealthChecker(time.Second)
	broker.RegisterHealth(h)

	overall := h.CheckAll(context.Background())
	if overall.Healthy {
		t.Error("broker must be unhealthy before the router runs")
	}
	router, ok := overall.Components["router"]
	if !ok {
		t.Fatalf("components = %v", overall.Components)
	}
	if router.Healthy || router.Error == "" {
		t.Errorf("router health = %+v", router)
	}
	if _, ok := overall.Components["nats"]; ok {
		t.Error("nats component registered without a connection")
	}
}

func TestWALComponents_CloseNil(t *testing.T) {
	var c *WALComponents
	c.Close()

	got, err := InitWAL(context.Background(), &config.WALConfig{Enabled: false}, nil)
	if err != nil || got != nil {
		t.Errorf("InitWAL(disabled) = %v, %v", got, err)
	}
}

func TestBrokerComponents_ShutdownNil(t *testing.T) {
	var b *BrokerComponents
	b.Shutdown(context.Background())
}
