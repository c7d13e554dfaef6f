// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

/*
Package metrics provides Prometheus metrics for the gateway.

All collectors are registered with the default registry through promauto and
are exposed at /metrics in the Prometheus text format:

	curl http://localhost:8081/metrics

# Available Metrics

HTTP:
  - api_requests_total (method, endpoint, status_code)
  - api_request_duration_seconds (method, endpoint)
  - api_active_requests
  - api_rate_limit_hits_total (endpoint)

Pipeline:
  - sensor_readings_processed_total
  - sensor_readings_invalid_total
  - sensor_points_persisted_total
  - sensor_pipeline_errors_total (stage)
  - sensor_pipeline_duration_seconds

Alarms:
  - alarms_raised_total (alarm_type)
  - alarms_ended_total (alarm_type)
  - alarms_suppressed_total
  - alarm_analysis_queue_depth
  - alarm_analysis_dropped_total

Messaging:
  - broker_messages_published_total, broker_publish_errors_total
  - broker_messages_consumed_total, broker_poison_messages_total
  - broker_processing_duration_seconds
  - circuit_breaker_* (name)

WebSocket:
  - websocket_connections
  - websocket_messages_sent_total, websocket_messages_received_total
  - websocket_frames_dropped_total (reason)
  - websocket_errors_total (error_type)

Other collectors cover the DuckDB store, the ingest WAL, trial replay, the
MQTT bridge and presigned URL issuance.
*/
package metrics
