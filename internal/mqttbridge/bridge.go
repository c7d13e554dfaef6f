// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

// Package mqttbridge ingests device readings from an MQTT broker and sends
// them down the same path as POST /api/sensor/send.
package mqttbridge

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/goccy/go-json"

	"github.com/tomtom215/twinpulse/internal/config"
	"github.com/tomtom215/twinpulse/internal/eventprocessor"
	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/metrics"
	"github.com/tomtom215/twinpulse/internal/models"
)

var (
	ErrBridgeDisabled = errors.New("mqtt bridge is disabled")
	ErrNilSink        = errors.New("reading sink is required")
)

const disconnectTimeout = 5 * time.Second

// Bridge subscribes to the device telemetry topic and forwards every decoded
// reading to a ReadingSink.
type Bridge struct {
	cfg       config.MQTTConfig
	server    *url.URL
	sink      eventprocessor.ReadingSink
	now       func() time.Time
	connected atomic.Bool
}

// New validates cfg and returns an unconnected bridge.
func New(cfg *config.MQTTConfig, sink eventprocessor.ReadingSink) (*Bridge, error) {
	if !cfg.Enabled {
		return nil, ErrBridgeDisabled
	}
	if sink == nil {
		return nil, ErrNilSink
	}
	u, err := url.Parse(cfg.BrokerURL)
	if err != nil {
		return nil, fmt.Errorf("parse MQTT broker url: %w", err)
	}
	return &Bridge{cfg: *cfg, server: u, sink: sink, now: time.Now}, nil
}

// Serve connects and keeps the subscription alive until ctx is done. It
// implements suture.Service.
func (b *Bridge) Serve(ctx context.Context) error {
	cm, err := autopaho.NewConnection(ctx, b.clientConfig(ctx))
	if err != nil {
		return fmt.Errorf("start MQTT connection: %w", err)
	}

	<-ctx.Done()

	b.setConnected(false)
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
	defer cancel()
	if err := cm.Disconnect(dctx); err != nil {
		logging.Debug().Err(err).Msg("MQTT disconnect")
	}
	return ctx.Err()
}

func (b *Bridge) clientConfig(ctx context.Context) autopaho.ClientConfig {
	cfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{b.server},
		KeepAlive:                     b.cfg.KeepAlive,
		CleanStartOnInitialConnection: false,
		SessionExpiryInterval:         b.cfg.SessionExpiry,
		ConnectRetryDelay:             b.cfg.ConnectRetry,
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			b.setConnected(true)
			logging.Info().Str("broker", b.server.Redacted()).Msg("MQTT connection up")
			// Subscribing on every connection restores the subscription
			// after a reconnect without a persisted session.
			if _, err := cm.Subscribe(ctx, &paho.Subscribe{
				Subscriptions: []paho.SubscribeOptions{{Topic: b.cfg.Topic, QoS: byte(b.cfg.QoS)}},
			}); err != nil {
				logging.Error().Err(err).Str("topic", b.cfg.Topic).Msg("MQTT subscribe failed")
				return
			}
			logging.Info().Str("topic", b.cfg.Topic).Int("qos", b.cfg.QoS).Msg("Subscribed to device telemetry")
		},
		OnConnectError: func(err error) {
			b.setConnected(false)
			logging.Warn().Err(err).Msg("MQTT connection attempt failed")
		},
		ClientConfig: paho.ClientConfig{
			ClientID: b.cfg.ClientID,
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				func(pr paho.PublishReceived) (bool, error) {
					p := pr.Packet
					if err := b.handle(ctx, p.Topic, p.Payload); err != nil {
						logging.Warn().Err(err).Str("topic", p.Topic).Msg("MQTT message not forwarded")
					}
					return true, nil
				},
			},
			OnClientError: func(err error) {
				b.setConnected(false)
				logging.Warn().Err(err).Msg("MQTT client error")
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				b.setConnected(false)
				ev := logging.Warn().Uint8("reason_code", d.ReasonCode)
				if d.Properties != nil {
					ev = ev.Str("reason", d.Properties.ReasonString)
				}
				ev.Msg("MQTT server disconnected")
			},
		},
	}
	if b.cfg.Username != "" {
		cfg.ConnectUsername = b.cfg.Username
		cfg.ConnectPassword = []byte(b.cfg.Password)
	}
	return cfg
}

// handle decodes one payload and forwards it. Undecodable payloads are
// counted and dropped.
func (b *Bridge) handle(ctx context.Context, topic string, payload []byte) error {
	metrics.MQTTMessagesReceived.Inc()

	var reading models.SensorData
	if err := json.Unmarshal(payload, &reading); err != nil {
		metrics.MQTTDecodeErrors.Inc()
		return fmt.Errorf("decode reading: %w", err)
	}
	reading.Stamp(b.now())

	if err := b.sink.Send(ctx, &reading); err != nil {
		return fmt.Errorf("send reading %s: %w", reading.ID, err)
	}
	logging.Debug().Str("topic", topic).Str("sensor_id", reading.ID).Msg("Forwarded MQTT reading")
	return nil
}

func (b *Bridge) setConnected(up bool) {
	b.connected.Store(up)
	if up {
		metrics.MQTTConnected.Set(1)
	} else {
		metrics.MQTTConnected.Set(0)
	}
}

// IsConnected reports whether the bridge currently holds a broker connection.
func (b *Bridge) IsConnected() bool {
	return b.connected.Load()
}

// HealthCheck reports the connection state.
func (b *Bridge) HealthCheck(_ context.Context) eventprocessor.ComponentHealth {
	h := eventprocessor.ComponentHealth{
		Name:      "mqtt",
		Healthy:   b.IsConnected(),
		LastCheck: time.Now(),
		Details:   map[string]any{"topic": b.cfg.Topic},
	}
	if !h.Healthy {
		h.Message = "not connected"
	}
	return h
}

// String implements fmt.Stringer for supervisor logs.
func (b *Bridge) String() string {
	return "mqtt-bridge"
}
