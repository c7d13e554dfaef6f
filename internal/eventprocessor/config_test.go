// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package eventprocessor

import (
	"testing"
	"time"

	"github.com/tomtom215/twinpulse/internal/config"
)

func TestDefaultSubscriberConfigKeepsOrder(t *testing.T) {
	cfg := DefaultSubscriberConfig("nats://x")
	if cfg.SubscribersCount != 1 {
		t.Errorf("SubscribersCount = %d, want 1", cfg.SubscribersCount)
	}
	if cfg.MaxAckPending != 1 {
		t.Errorf("MaxAckPending = %d, want 1", cfg.MaxAckPending)
	}
	if cfg.StreamName != "SENSOR" {
		t.Errorf("StreamName = %q", cfg.StreamName)
	}
}

func TestDefaultStreamConfig(t *testing.T) {
	cfg := DefaultStreamConfig()
	if cfg.Name != "SENSOR" || len(cfg.Subjects) != 1 || cfg.Subjects[0] != SubjectSensorWildcard {
		t.Errorf("stream = %+v", cfg)
	}
	if cfg.MaxAge != 24*time.Hour {
		t.Errorf("MaxAge = %v", cfg.MaxAge)
	}
	if cfg.DuplicateWindow <= 0 {
		t.Error("duplicate window must be set for message id dedup")
	}
}

func TestConfigFromNATSSection(t *testing.T) {
	section := config.NATSConfig{
		StreamName:                 "TELEMETRY",
		StreamMaxAge:               2 * time.Hour,
		StreamMaxBytes:             1 << 30,
		DurableName:                "pipe",
		QueueGroup:                 "q",
		SubscribersCount:           1,
		AckWaitTimeout:             5 * time.Second,
		MaxDeliver:                 9,
		RouterRetryCount:           7,
		RouterRetryInitialInterval: 50 * time.Millisecond,
		RouterCloseTimeout:         3 * time.Second,
		RouterPoisonQueueEnabled:   false,
		RouterPoisonQueueTopic:     "sensor.dead",
	}

	stream := StreamConfigFrom(&section)
	if stream.Name != "TELEMETRY" || stream.MaxAge != 2*time.Hour || stream.MaxBytes != 1<<30 {
		t.Errorf("StreamConfigFrom = %+v", stream)
	}

	sub := SubscriberConfigFrom(&section, "nats://h:4222")
	if sub.URL != "nats://h:4222" || sub.DurableName != "pipe" || sub.MaxDeliver != 9 {
		t.Errorf("SubscriberConfigFrom = %+v", sub)
	}
	if sub.StreamName != "TELEMETRY" {
		t.Errorf("subscriber StreamName = %q, want TELEMETRY", sub.StreamName)
	}

	router := RouterConfigFrom(&section)
	if router.RetryMaxRetries != 7 || router.RetryInitialInterval != 50*time.Millisecond {
		t.Errorf("RouterConfigFrom = %+v", router)
	}
	if router.PoisonQueueTopic != "" {
		t.Errorf("poison queue disabled but topic = %q", router.PoisonQueueTopic)
	}

	section.RouterPoisonQueueEnabled = true
	if got := RouterConfigFrom(&section).PoisonQueueTopic; got != "sensor.dead" {
		t.Errorf("PoisonQueueTopic = %q, want sensor.dead", got)
	}
}

func TestNewSubscriberRejectsZeroSubscribers(t *testing.T) {
	cfg := DefaultSubscriberConfig("nats://127.0.0.1:1")
	cfg.SubscribersCount = 0
	if _, err := NewSubscriber(&cfg, nil); err == nil {
		t.Error("expected error for zero subscribers")
	}
}
