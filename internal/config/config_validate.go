// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateSecurity,
		c.validateNATS,
		c.validateMQTT,
		c.validateDatabase,
		c.validateStorage,
		c.validateAlarm,
		c.validateReplay,
		c.validateWAL,
		c.validateWebSocket,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

// validAuthModes defines the allowed authentication modes.
var validAuthModes = map[string]bool{
	AuthModeNone: true,
	AuthModeJWT:  true,
}

// Rate limit bounds.
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateSecurity() error {
	if !validAuthModes[c.Security.AuthMode] {
		return fmt.Errorf("AUTH_MODE must be one of: none, jwt")
	}
	if c.Security.AuthMode == AuthModeNone && c.Server.IsProduction() {
		return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production")
	}

	// Wildcard CORS with authentication lets any site replay a stolen token.
	if c.Security.AuthEnabled() && c.hasWildcardCORS() && c.Server.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* is not allowed in production with authentication enabled; " +
			"set explicit origins, for example CORS_ORIGINS=https://twin.example.org")
	}

	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
		}
		if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
		}
	}

	if c.Security.AuthMode == AuthModeJWT {
		return c.validateJWTAuth()
	}
	return nil
}

func (c *Config) validateJWTAuth() error {
	switch {
	case c.Security.JWTSecret == "":
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is jwt")
	case len(c.Security.JWTSecret) < 32:
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	case containsPlaceholder(c.Security.JWTSecret):
		return fmt.Errorf("JWT_SECRET contains a placeholder value; generate one with: openssl rand -base64 32")
	}

	if c.Security.AdminUsername == "" {
		return fmt.Errorf("ADMIN_USERNAME is required when AUTH_MODE is jwt")
	}
	if len(c.Security.AdminPassword) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters when AUTH_MODE is jwt")
	}
	if containsPlaceholder(c.Security.AdminPassword) {
		return fmt.Errorf("ADMIN_PASSWORD contains a placeholder value")
	}
	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS reports a wildcard CORS policy with authentication on,
// which main logs at startup outside production.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.Security.AuthEnabled() && c.hasWildcardCORS()
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if !c.NATS.EmbeddedServer && c.NATS.URL == "" {
		return fmt.Errorf("NATS_URL is required when NATS_EMBEDDED=false")
	}
	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}
	if c.NATS.StreamName == "" {
		return fmt.Errorf("NATS_STREAM_NAME must not be empty")
	}
	if c.NATS.StreamMaxAge < time.Minute {
		return fmt.Errorf("NATS_STREAM_MAX_AGE must be at least 1m")
	}
	if c.NATS.StreamMaxBytes <= 0 {
		return fmt.Errorf("NATS_STREAM_MAX_BYTES must be positive")
	}
	if c.NATS.EmbeddedServer && c.NATS.MaxStore > 0 && c.NATS.StreamMaxBytes > c.NATS.MaxStore {
		return fmt.Errorf("NATS_STREAM_MAX_BYTES (%d) must not exceed NATS_MAX_STORE (%d)", c.NATS.StreamMaxBytes, c.NATS.MaxStore)
	}
	if c.NATS.SubscribersCount < 1 {
		return fmt.Errorf("NATS_SUBSCRIBERS must be at least 1")
	}
	if c.NATS.MaxDeliver < 1 {
		return fmt.Errorf("NATS_MAX_DELIVER must be at least 1")
	}
	if c.NATS.RouterPoisonQueueEnabled && !strings.HasPrefix(c.NATS.RouterPoisonQueueTopic, "sensor.") {
		return fmt.Errorf("NATS_ROUTER_POISON_TOPIC must be inside the sensor.> subject space")
	}
	return nil
}

func (c *Config) validateMQTT() error {
	if !c.MQTT.Enabled {
		return nil
	}
	if err := validateURL(c.MQTT.BrokerURL, "mqtt", "mqtts", "tcp", "ssl", "ws", "wss"); err != nil {
		return fmt.Errorf("MQTT_BROKER_URL is invalid: %w", err)
	}
	if c.MQTT.Topic == "" {
		return fmt.Errorf("MQTT_TOPIC is required when MQTT_ENABLED=true")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("MQTT_QOS must be 0, 1 or 2")
	}
	if !c.NATS.Enabled {
		return fmt.Errorf("MQTT_ENABLED=true requires NATS_ENABLED=true")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.Enabled {
		return nil
	}
	if c.Storage.Endpoint == "" {
		return fmt.Errorf("MINIO_ENDPOINT is required when MINIO_ENABLED=true")
	}
	if strings.Contains(c.Storage.Endpoint, "://") {
		return fmt.Errorf("MINIO_ENDPOINT must be host:port without a scheme; use MINIO_USE_SSL for https")
	}
	if c.Storage.BucketName == "" {
		return fmt.Errorf("MINIO_BUCKET is required when MINIO_ENABLED=true")
	}
	return nil
}

func (c *Config) validateAlarm() error {
	if c.Alarm.DuplicatePreventionMinutes < 0 {
		return fmt.Errorf("ALARM_DUPLICATE_PREVENTION_MINUTES must not be negative")
	}
	if c.Alarm.Workers < 1 {
		return fmt.Errorf("ALARM_WORKERS must be at least 1")
	}
	if c.Alarm.QueueSize < 1 {
		return fmt.Errorf("ALARM_QUEUE_SIZE must be at least 1")
	}
	return nil
}

func (c *Config) validateReplay() error {
	if c.Replay.CacheSize < 1 {
		return fmt.Errorf("REPLAY_CACHE_SIZE must be at least 1")
	}
	if c.Replay.LoadWorkers < 1 {
		return fmt.Errorf("REPLAY_LOAD_WORKERS must be at least 1")
	}
	if c.Replay.MaxRate <= 0 {
		return fmt.Errorf("REPLAY_MAX_RATE must be positive")
	}
	if c.Points.RefreshInterval < time.Second {
		return fmt.Errorf("POINTS_REFRESH_INTERVAL must be at least 1s")
	}
	return nil
}

func (c *Config) validateWAL() error {
	if !c.WAL.Enabled {
		return nil
	}
	if c.WAL.Path == "" {
		return fmt.Errorf("WAL_PATH is required when WAL_ENABLED=true")
	}
	if c.WAL.RetryInterval <= 0 {
		return fmt.Errorf("WAL_RETRY_INTERVAL must be positive")
	}
	if c.WAL.MaxRetries < 1 {
		return fmt.Errorf("WAL_MAX_RETRIES must be at least 1")
	}
	if !c.NATS.Enabled {
		return fmt.Errorf("WAL_ENABLED=true requires NATS_ENABLED=true")
	}
	return nil
}

func (c *Config) validateWebSocket() error {
	if c.WebSocket.SendBuffer < 1 {
		return fmt.Errorf("WS_SEND_BUFFER must be at least 1")
	}
	if c.WebSocket.FrameRate <= 0 || c.WebSocket.FrameBurst < 1 {
		return fmt.Errorf("WS_FRAME_RATE and WS_FRAME_BURST must be positive")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func validateURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("scheme %q not one of %s", u.Scheme, strings.Join(schemes, ", "))
}

// placeholderPatterns catch example values copied from documentation.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"YOUR_PASSWORD",
	"PLACEHOLDER",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, p := range placeholderPatterns {
		if strings.Contains(upper, p) {
			return true
		}
	}
	return false
}
