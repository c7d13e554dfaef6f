// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Sensor Pipeline Metrics
	SensorReadingsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sensor_readings_processed_total",
			Help: "Total number of valid readings run through the pipeline",
		},
	)

	SensorReadingsInvalid = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sensor_readings_invalid_total",
			Help: "Total number of readings rejected for missing HeatFlux or CoolingWater_In_Temp",
		},
	)

	SensorPointsPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sensor_points_persisted_total",
			Help: "Total number of point values written to the reading store",
		},
	)

	SensorPipelineErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensor_pipeline_errors_total",
			Help: "Total number of pipeline step failures",
		},
		[]string{"stage"}, // estop, persist, trial, collection, alarm
	)

	SensorPipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sensor_pipeline_duration_seconds",
			Help:    "Time spent processing one reading",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	// Alarm Metrics
	AlarmsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alarms_raised_total",
			Help: "Total number of alarms created",
		},
		[]string{"alarm_type"},
	)

	AlarmsEnded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alarms_ended_total",
			Help: "Total number of alarms whose condition cleared",
		},
		[]string{"alarm_type"},
	)

	AlarmsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alarms_suppressed_total",
			Help: "Total number of alarms skipped by the duplicate window",
		},
	)

	AlarmQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alarm_analysis_queue_depth",
			Help: "Readings waiting for alarm analysis",
		},
	)

	AlarmAnalysisDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alarm_analysis_dropped_total",
			Help: "Readings not analysed because the analyzer was stopped",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
	)

	WSFramesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_frames_dropped_total",
			Help: "Total number of frames not delivered",
		},
		[]string{"reason"}, // queue_full, slow_client
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Broker Metrics
	BrokerMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_messages_published_total",
			Help: "Total number of messages published to the broker",
		},
		[]string{"subject"},
	)

	BrokerPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_publish_errors_total",
			Help: "Total number of failed broker publishes",
		},
		[]string{"subject"},
	)

	BrokerMessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broker_messages_consumed_total",
			Help: "Total number of messages received from the broker",
		},
	)

	BrokerPoisonMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broker_poison_messages_total",
			Help: "Total number of messages that could not be decoded",
		},
	)

	BrokerProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "broker_processing_duration_seconds",
			Help:    "Time spent handling one broker message",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	// WAL Metrics
	WALPendingEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wal_pending_entries",
			Help: "Readings written to the WAL and not yet confirmed",
		},
	)

	WALWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_writes_total",
			Help: "Total number of WAL writes",
		},
	)

	WALConfirms = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_confirms_total",
			Help: "Total number of WAL entries confirmed after publish",
		},
	)

	WALRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wal_retries_total",
			Help: "Total number of WAL republish attempts",
		},
		[]string{"result"}, // success, failure
	)

	WALExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_expired_total",
			Help: "Total number of WAL entries dropped after TTL or max retries",
		},
	)

	// Replay Metrics
	ReplaySessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "replay_sessions_active",
			Help: "Number of trial replays currently pushing",
		},
	)

	HistoryCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_cache_hits_total",
			Help: "Total number of trial history cache hits",
		},
	)

	HistoryCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_cache_misses_total",
			Help: "Total number of trial history cache misses",
		},
	)

	// MQTT Metrics
	MQTTConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mqtt_connected",
			Help: "1 when the MQTT bridge holds a broker connection",
		},
	)

	MQTTMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mqtt_messages_received_total",
			Help: "Total number of MQTT messages received",
		},
	)

	MQTTDecodeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mqtt_decode_errors_total",
			Help: "Total number of MQTT payloads that were not valid readings",
		},
	)

	// Object Storage Metrics
	PresignRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_presign_requests_total",
			Help: "Total number of presigned URLs issued",
		},
		[]string{"operation", "result"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPublish records one broker publish attempt.
func RecordPublish(subject string, err error) {
	if err != nil {
		BrokerPublishErrors.WithLabelValues(subject).Inc()
		return
	}
	BrokerMessagesPublished.WithLabelValues(subject).Inc()
}

// RecordWALRetry records one WAL republish attempt.
func RecordWALRetry(success bool) {
	if success {
		WALRetries.WithLabelValues("success").Inc()
	} else {
		WALRetries.WithLabelValues("failure").Inc()
	}
}

// RecordPresign records one presign request.
func RecordPresign(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	PresignRequests.WithLabelValues(operation, result).Inc()
}

// RecordAppInfo publishes the build information gauge.
func RecordAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// TrackUptime sets AppUptime to the time since start every interval until
// ctx is done.
func TrackUptime(ctx context.Context, start time.Time, interval time.Duration) {
	AppUptime.Set(time.Since(start).Seconds())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			AppUptime.Set(time.Since(start).Seconds())
		}
	}
}
