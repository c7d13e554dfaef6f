// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package websocket

import (
	"fmt"
	"slices"

	"github.com/goccy/go-json"
)

// Topics served by the hub.
const (
	TopicSensorData  = "/topic/sensor-data"
	TopicTestPhase   = "/topic/test-phase"
	TopicAlarmData   = "/topic/alarm-data"
	TopicHistoryData = "/topic/history_data"
)

// Topics lists every topic a client may subscribe to.
var Topics = []string{TopicSensorData, TopicTestPhase, TopicAlarmData, TopicHistoryData}

// ValidTopic reports whether topic is served by the hub.
func ValidTopic(topic string) bool {
	return slices.Contains(Topics, topic)
}

// Client frame actions.
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
	ActionPing        = "ping"
)

// Server frame types.
const (
	FrameSubscribed   = "subscribed"
	FrameUnsubscribed = "unsubscribed"
	FramePong         = "pong"
	FrameError        = "error"
	FrameMessage      = "message"
)

// ClientFrame is a frame sent by a client.
type ClientFrame struct {
	Action string `json:"action"`
	Topic  string `json:"topic,omitempty"`
}

// ServerFrame is a frame sent to a client.
type ServerFrame struct {
	Type    string          `json:"type"`
	Topic   string          `json:"topic,omitempty"`
	Message string          `json:"message,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// encodeMessage builds the message frame for topic once so that every
// subscriber receives the same bytes.
func encodeMessage(topic string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return json.Marshal(ServerFrame{Type: FrameMessage, Topic: topic, Payload: body})
}

func encodeFrame(f ServerFrame) []byte {
	data, err := json.Marshal(f)
	if err != nil {
		// ServerFrame has no field that can fail to marshal.
		panic(err)
	}
	return data
}
