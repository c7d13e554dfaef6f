// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package eventprocessor

import (
	"time"

	"github.com/tomtom215/twinpulse/internal/config"
)

// Subjects.
const (
	// SubjectSensorData carries raw readings from ingest to the pipeline.
	SubjectSensorData = "sensor.data"

	// SubjectSensorWildcard is bound to the SENSOR stream.
	SubjectSensorWildcard = "sensor.>"

	// HandlerSensorIngest names the router handler feeding the pipeline.
	HandlerSensorIngest = "sensor-ingest"
)

// ServerConfig holds embedded NATS server configuration.
type ServerConfig struct {
	Host              string
	Port              int // -1 picks a random port
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns production defaults for embedded NATS server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats/jetstream",
		JetStreamMaxMem:   256 << 20, // 256MB
		JetStreamMaxStore: 4 << 30,   // 4GB
	}
}

// PublisherConfig holds publisher configuration.
type PublisherConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool // nolint:revive // ID is correct per Go conventions
}

// DefaultPublisherConfig returns production defaults for publisher.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		MaxReconnects:    -1, // Unlimited
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024, // 8MB
		EnableTrackMsgID: true,
	}
}

// SubscriberConfig holds subscriber configuration.
type SubscriberConfig struct {
	URL         string
	DurableName string
	QueueGroup  string

	// SubscribersCount must stay 1 for in-order processing.
	SubscribersCount int
	AckWaitTimeout   time.Duration
	MaxDeliver       int
	MaxAckPending    int
	CloseTimeout     time.Duration
	MaxReconnects    int
	ReconnectWait    time.Duration

	// StreamName binds the consumer to an existing stream. Required for
	// wildcard stream subjects because AutoProvision would try to create a
	// stream named after the subject.
	StreamName string
}

// DefaultSubscriberConfig returns production defaults for subscriber.
func DefaultSubscriberConfig(url string) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		DurableName:      "sensor-pipeline",
		QueueGroup:       "telemetry",
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		MaxDeliver:       5,
		MaxAckPending:    1, // one in flight keeps broker order
		CloseTimeout:     30 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		StreamName:       "SENSOR",
	}
}

// StreamConfig defines the sensor stream settings.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfig returns production stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            "SENSOR",
		Subjects:        []string{SubjectSensorWildcard},
		MaxAge:          24 * time.Hour,
		MaxBytes:        2 << 30, // 2GB, half the embedded server's default store
		MaxMsgs:         -1,                     // Unlimited
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32        // Allowed in half-open state
	Interval         time.Duration // Reset interval for counts
	Timeout          time.Duration // Time to stay open
	FailureThreshold uint32        // Failures before opening
}

// DefaultCircuitBreakerConfig returns production defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

// StreamConfigFrom applies the nats section to DefaultStreamConfig.
func StreamConfigFrom(cfg *config.NATSConfig) StreamConfig {
	s := DefaultStreamConfig()
	if cfg.StreamName != "" {
		s.Name = cfg.StreamName
	}
	if cfg.StreamMaxAge > 0 {
		s.MaxAge = cfg.StreamMaxAge
	}
	if cfg.StreamMaxBytes > 0 {
		s.MaxBytes = cfg.StreamMaxBytes
	}
	return s
}

// SubscriberConfigFrom applies the nats section to DefaultSubscriberConfig.
func SubscriberConfigFrom(cfg *config.NATSConfig, url string) SubscriberConfig {
	s := DefaultSubscriberConfig(url)
	s.DurableName = cfg.DurableName
	s.QueueGroup = cfg.QueueGroup
	s.SubscribersCount = cfg.SubscribersCount
	s.AckWaitTimeout = cfg.AckWaitTimeout
	s.MaxDeliver = cfg.MaxDeliver
	s.CloseTimeout = cfg.RouterCloseTimeout
	s.StreamName = StreamConfigFrom(cfg).Name
	return s
}

// RouterConfigFrom applies the nats section to DefaultRouterConfig.
func RouterConfigFrom(cfg *config.NATSConfig) RouterConfig {
	r := DefaultRouterConfig()
	r.RetryMaxRetries = cfg.RouterRetryCount
	r.RetryInitialInterval = cfg.RouterRetryInitialInterval
	r.RetryMaxInterval = cfg.RouterRetryInitialInterval * 10
	r.CloseTimeout = cfg.RouterCloseTimeout
	r.PoisonQueueTopic = ""
	if cfg.RouterPoisonQueueEnabled {
		r.PoisonQueueTopic = cfg.RouterPoisonQueueTopic
	}
	return r
}
