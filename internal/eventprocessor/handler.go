// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/metrics"
	"github.com/tomtom215/twinpulse/internal/models"
)

// ReadingProcessor consumes decoded readings in broker order.
type ReadingProcessor interface {
	Process(ctx context.Context, reading *models.SensorData) error
}

// SensorHandler decodes sensor.data messages and hands them to the pipeline.
type SensorHandler struct {
	processor ReadingProcessor
}

// NewSensorHandler creates the sensor-ingest handler.
func NewSensorHandler(processor ReadingProcessor) (*SensorHandler, error) {
	if processor == nil {
		return nil, errors.New("reading processor required")
	}
	return &SensorHandler{processor: processor}, nil
}

// Handle implements message.NoPublishHandlerFunc.
func (h *SensorHandler) Handle(msg *message.Message) error {
	start := time.Now()
	metrics.BrokerMessagesConsumed.Inc()

	var reading models.SensorData
	if err := json.Unmarshal(msg.Payload, &reading); err != nil {
		metrics.BrokerPoisonMessages.Inc()
		logging.Warn().
			Err(err).
			Str("message_uuid", msg.UUID).
			Int("payload_bytes", len(msg.Payload)).
			Msg("undecodable sensor message")
		return fmt.Errorf("%w: %w", ErrUndecodable, err)
	}

	ctx := logging.ContextWithCorrelationID(msg.Context(), msg.UUID)
	err := h.processor.Process(ctx, &reading)
	metrics.BrokerProcessingDuration.Observe(time.Since(start).Seconds())
	return err
}
