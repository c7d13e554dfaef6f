// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/twinpulse/config.yaml",
	"/etc/twinpulse/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. They are loaded first and
// overridden by the config file and then by environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8081,
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Security: SecurityConfig{
			AuthMode:          AuthModeJWT,
			SessionTimeout:    24 * time.Hour,
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     600,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		NATS: NATSConfig{
			Enabled:                    true,
			URL:                        "nats://127.0.0.1:4222",
			EmbeddedServer:             true,
			StoreDir:                   "/data/nats/jetstream",
			MaxMemory:                  256 << 20, // 256MB
			MaxStore:                   4 << 30,   // 4GB
			StreamName:                 "SENSOR",
			StreamMaxAge:               24 * time.Hour,
			StreamMaxBytes:             2 << 30, // 2GB
			DurableName:                "sensor-pipeline",
			QueueGroup:                 "telemetry",
			SubscribersCount:           1,
			AckWaitTimeout:             30 * time.Second,
			MaxDeliver:                 5,
			RouterRetryCount:           3,
			RouterRetryInitialInterval: 100 * time.Millisecond,
			RouterPoisonQueueEnabled:   true,
			RouterPoisonQueueTopic:     "sensor.poison",
			RouterCloseTimeout:         30 * time.Second,
			CircuitBreakerEnabled:      true,
		},
		MQTT: MQTTConfig{
			Enabled:       false,
			BrokerURL:     "mqtt://127.0.0.1:1883",
			ClientID:      "twinpulse-bridge",
			Topic:         "devices/+/telemetry",
			QoS:           1,
			KeepAlive:     30,
			ConnectRetry:  5 * time.Second,
			SessionExpiry: 60,
		},
		Database: DatabaseConfig{
			Path:      "/data/twinpulse.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Storage: StorageConfig{
			Enabled:    true,
			Endpoint:   "127.0.0.1:9000",
			BucketName: "simulations",
			Region:     "us-east-1",
			UseSSL:     false,
		},
		Alarm: AlarmConfig{
			DuplicatePreventionMinutes: 60,
			Workers:                    4,
			QueueSize:                  1024,
		},
		Points: PointsConfig{
			RefreshInterval: 30 * time.Second,
		},
		Replay: ReplayConfig{
			CacheTTL:    30 * time.Minute,
			CacheSize:   1000,
			LoadWorkers: 8,
			MaxRate:     100,
		},
		WAL: WALConfig{
			Enabled:         false,
			Path:            "/data/wal",
			SyncWrites:      true,
			RetryInterval:   30 * time.Second,
			MaxRetries:      100,
			RetryBackoff:    5 * time.Second,
			CompactInterval: time.Hour,
			EntryTTL:        24 * time.Hour,
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins: []string{},
			SendBuffer:     256,
			FrameRate:      20,
			FrameBurst:     40,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Load reads configuration using koanf with layered sources:
//  1. Defaults: built-in values from defaultConfig
//  2. Config file: optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables: mapped through envTransformFunc
//
// Later layers win. The merged result is validated before it is returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when they arrive as strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"websocket.allowed_origins",
}

// processSliceFields converts comma-separated env values into slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := []string{}
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Security
	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"session_timeout":     "security.session_timeout",
	"admin_username":      "security.admin_username",
	"admin_password":      "security.admin_password",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"casbin_model_path":   "security.casbin_model_path",
	"casbin_policy_path":  "security.casbin_policy_path",

	// NATS
	"nats_enabled":               "nats.enabled",
	"nats_url":                   "nats.url",
	"nats_embedded":              "nats.embedded_server",
	"nats_store_dir":             "nats.store_dir",
	"nats_max_memory":            "nats.max_memory",
	"nats_max_store":             "nats.max_store",
	"nats_stream_name":           "nats.stream_name",
	"nats_stream_max_age":        "nats.stream_max_age",
	"nats_stream_max_bytes":      "nats.stream_max_bytes",
	"nats_durable_name":          "nats.durable_name",
	"nats_queue_group":           "nats.queue_group",
	"nats_subscribers":           "nats.subscribers_count",
	"nats_ack_wait":              "nats.ack_wait_timeout",
	"nats_max_deliver":           "nats.max_deliver",
	"nats_router_retry_count":    "nats.router_retry_count",
	"nats_router_retry_interval": "nats.router_retry_initial_interval",
	"nats_router_poison_enabled": "nats.router_poison_queue_enabled",
	"nats_router_poison_topic":   "nats.router_poison_queue_topic",
	"nats_router_close_timeout":  "nats.router_close_timeout",
	"nats_circuit_breaker":       "nats.circuit_breaker_enabled",

	// MQTT bridge
	"mqtt_enabled":        "mqtt.enabled",
	"mqtt_broker_url":     "mqtt.broker_url",
	"mqtt_client_id":      "mqtt.client_id",
	"mqtt_username":       "mqtt.username",
	"mqtt_password":       "mqtt.password",
	"mqtt_topic":          "mqtt.topic",
	"mqtt_qos":            "mqtt.qos",
	"mqtt_keep_alive":     "mqtt.keep_alive",
	"mqtt_connect_retry":  "mqtt.connect_retry",
	"mqtt_session_expiry": "mqtt.session_expiry",

	// Database
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	// Object storage
	"minio_enabled":    "storage.enabled",
	"minio_endpoint":   "storage.endpoint",
	"minio_access_key": "storage.access_key",
	"minio_secret_key": "storage.secret_key",
	"minio_bucket":     "storage.bucket_name",
	"minio_region":     "storage.region",
	"minio_use_ssl":    "storage.use_ssl",

	// Alarms
	"alarm_duplicate_prevention_minutes": "alarm.duplicate_prevention_minutes",
	"alarm_workers":                      "alarm.workers",
	"alarm_queue_size":                   "alarm.queue_size",

	// Points
	"points_refresh_interval": "points.refresh_interval",

	// Replay
	"replay_cache_ttl":    "replay.cache_ttl",
	"replay_cache_size":   "replay.cache_size",
	"replay_load_workers": "replay.load_workers",
	"replay_max_rate":     "replay.max_rate",

	// WAL
	"wal_enabled":          "wal.enabled",
	"wal_path":             "wal.path",
	"wal_sync_writes":      "wal.sync_writes",
	"wal_retry_interval":   "wal.retry_interval",
	"wal_max_retries":      "wal.max_retries",
	"wal_retry_backoff":    "wal.retry_backoff",
	"wal_compact_interval": "wal.compact_interval",
	"wal_entry_ttl":        "wal.entry_ttl",

	// WebSocket
	"ws_allowed_origins": "websocket.allowed_origins",
	"ws_send_buffer":     "websocket.send_buffer",
	"ws_frame_rate":      "websocket.frame_rate",
	"ws_frame_burst":     "websocket.frame_burst",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps an environment variable to its koanf path. Unknown
// variables map to "" and are skipped so unrelated environment does not leak
// into the configuration.
func envTransformFunc(s string) string {
	return envMappings[strings.ToLower(s)]
}

// WatchConfigFile calls callback whenever the file at path changes. The
// caller must reload with Load and guard its own copy of the config.
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
