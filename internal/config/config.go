// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

// Package config loads TwinPulse configuration from built-in defaults, an
// optional YAML file and environment variables, in that order of precedence.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the root configuration object.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Security   SecurityConfig   `koanf:"security"`
	NATS       NATSConfig       `koanf:"nats"`
	MQTT       MQTTConfig       `koanf:"mqtt"`
	Database   DatabaseConfig   `koanf:"database"`
	Storage    StorageConfig    `koanf:"storage"`
	Alarm      AlarmConfig      `koanf:"alarm"`
	Points     PointsConfig     `koanf:"points"`
	Replay     ReplayConfig     `koanf:"replay"`
	WAL        WALConfig        `koanf:"wal"`
	WebSocket  WebSocketConfig  `koanf:"websocket"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Environment is development or production. Production enables the
	// stricter security checks in Validate.
	Environment string `koanf:"environment"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SecurityConfig holds authentication, authorization and HTTP hardening settings.
type SecurityConfig struct {
	// AuthMode is "jwt" or "none".
	AuthMode       string        `koanf:"auth_mode"`
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`
	AdminUsername  string        `koanf:"admin_username"`
	AdminPassword  string        `koanf:"admin_password"`

	CORSOrigins []string `koanf:"cors_origins"`

	// Per-IP limit applied to sensor ingest and the file API.
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// Casbin policy overrides. Empty paths use the embedded model and policy.
	CasbinModelPath  string `koanf:"casbin_model_path"`
	CasbinPolicyPath string `koanf:"casbin_policy_path"`
}

// NATSConfig configures the message broker.
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	MaxMemory      int64  `koanf:"max_memory"`
	MaxStore       int64  `koanf:"max_store"`

	// StreamName holds the sensor subjects; StreamMaxAge and StreamMaxBytes
	// bound retention. With the embedded server StreamMaxBytes must fit in
	// MaxStore.
	StreamName     string        `koanf:"stream_name"`
	StreamMaxAge   time.Duration `koanf:"stream_max_age"`
	StreamMaxBytes int64         `koanf:"stream_max_bytes"`

	DurableName string `koanf:"durable_name"`
	QueueGroup  string `koanf:"queue_group"`

	// SubscribersCount stays at 1 so readings are processed in broker order.
	SubscribersCount int           `koanf:"subscribers_count"`
	AckWaitTimeout   time.Duration `koanf:"ack_wait_timeout"`
	MaxDeliver       int           `koanf:"max_deliver"`

	RouterRetryCount           int           `koanf:"router_retry_count"`
	RouterRetryInitialInterval time.Duration `koanf:"router_retry_initial_interval"`
	RouterPoisonQueueEnabled   bool          `koanf:"router_poison_queue_enabled"`
	RouterPoisonQueueTopic     string        `koanf:"router_poison_queue_topic"`
	RouterCloseTimeout         time.Duration `koanf:"router_close_timeout"`

	CircuitBreakerEnabled bool `koanf:"circuit_breaker_enabled"`
}

// MQTTConfig configures the optional device-facing MQTT bridge.
type MQTTConfig struct {
	Enabled       bool          `koanf:"enabled"`
	BrokerURL     string        `koanf:"broker_url"`
	ClientID      string        `koanf:"client_id"`
	Username      string        `koanf:"username"`
	Password      string        `koanf:"password"`
	Topic         string        `koanf:"topic"`
	QoS           int           `koanf:"qos"`
	KeepAlive     uint16        `koanf:"keep_alive"`
	ConnectRetry  time.Duration `koanf:"connect_retry"`
	SessionExpiry uint32        `koanf:"session_expiry"`
}

// DatabaseConfig configures the DuckDB store.
type DatabaseConfig struct {
	// Path of the database file; ":memory:" for an in-memory database.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// StorageConfig configures the S3-compatible object store used for
// simulation files.
type StorageConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Endpoint   string `koanf:"endpoint"`
	AccessKey  string `koanf:"access_key"`
	SecretKey  string `koanf:"secret_key"`
	BucketName string `koanf:"bucket_name"`
	Region     string `koanf:"region"`
	UseSSL     bool   `koanf:"use_ssl"`
}

// AlarmConfig configures alarm analysis.
type AlarmConfig struct {
	// DuplicatePreventionMinutes suppresses a new alarm on a point when any
	// alarm for that point was raised within this many minutes.
	DuplicatePreventionMinutes int `koanf:"duplicate_prevention_minutes"`

	Workers   int `koanf:"workers"`
	QueueSize int `koanf:"queue_size"`
}

// PointsConfig configures the point registry.
type PointsConfig struct {
	RefreshInterval time.Duration `koanf:"refresh_interval"`
}

// ReplayConfig configures trial history replay.
type ReplayConfig struct {
	CacheTTL    time.Duration `koanf:"cache_ttl"`
	CacheSize   int           `koanf:"cache_size"`
	LoadWorkers int           `koanf:"load_workers"`
	MaxRate     float64       `koanf:"max_rate"`
}

// WALConfig configures the durable ingest buffer.
type WALConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Path            string        `koanf:"path"`
	SyncWrites      bool          `koanf:"sync_writes"`
	RetryInterval   time.Duration `koanf:"retry_interval"`
	MaxRetries      int           `koanf:"max_retries"`
	RetryBackoff    time.Duration `koanf:"retry_backoff"`
	CompactInterval time.Duration `koanf:"compact_interval"`
	EntryTTL        time.Duration `koanf:"entry_ttl"`
}

// WebSocketConfig configures the push channel.
type WebSocketConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
	SendBuffer     int      `koanf:"send_buffer"`
	// Inbound frame limit per client.
	FrameRate  float64 `koanf:"frame_rate"`
	FrameBurst int     `koanf:"frame_burst"`
}

// SupervisorConfig mirrors supervisor.TreeConfig.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// IsProduction reports whether Environment is production.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// AuthEnabled reports whether requests must carry a token.
func (s SecurityConfig) AuthEnabled() bool {
	return s.AuthMode != AuthModeNone
}

// Authentication modes.
const (
	AuthModeJWT  = "jwt"
	AuthModeNone = "none"
)
