// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

// Package eventprocessor carries sensor readings through NATS JetStream using
// Watermill.
//
// Readings accepted by the REST ingest endpoint or the MQTT bridge are
// published on subject sensor.data inside stream SENSOR. A single durable
// consumer feeds them, in stream order, to the telemetry pipeline:
//
//	POST /api/sensor/send ─┐
//	                       ├─► [WAL] ─► Publisher ─► JetStream SENSOR (sensor.>)
//	MQTT devices/+/...  ───┘                                │
//	                                                        ▼
//	                                    Subscriber (1 consumer, durable)
//	                                                        │
//	                                                        ▼
//	                          Router: Retry ─► PoisonQueue ─► Recoverer
//	                                                        │
//	                                                        ▼
//	                                    SensorHandler ─► telemetry pipeline
//
// # Ordering
//
// SubscribersCount stays at 1 and AckAsync is off, so the next reading is not
// handed to the pipeline until the previous one has been acked.
//
// # Failure Handling
//
//   - Payloads that are not a JSON object go straight to the poison subject
//     (sensor.poison by default) and are acked.
//   - Other handler errors are retried with exponential backoff; when retries
//     are exhausted the message is nacked and JetStream redelivers it up to
//     MaxDeliver times.
//   - Publishing goes through an optional gobreaker circuit breaker so that a
//     dead broker fails fast instead of blocking HTTP handlers.
//
// # Embedded Server
//
// Single-node deployments run NATS in-process (EmbeddedServer) with JetStream
// file storage under nats.store_dir. StreamInitializer creates or updates the
// SENSOR stream on startup.
package eventprocessor
