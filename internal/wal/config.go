// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package wal

import (
	"time"

	"github.com/tomtom215/twinpulse/internal/config"
)

// Config holds WAL configuration.
type Config struct {
	// Path is the BadgerDB directory.
	Path string

	// SyncWrites fsyncs every write. Off trades durability for throughput.
	SyncWrites bool

	// RetryInterval is how often the retry loop scans pending entries.
	RetryInterval time.Duration

	// MaxRetries is the number of failed publishes after which an entry is dropped.
	MaxRetries int

	// RetryBackoff is the base delay; attempt n waits RetryBackoff * 2^n,
	// capped at MaxBackoff.
	RetryBackoff time.Duration
	MaxBackoff   time.Duration

	// CompactInterval is how often confirmed entries are removed.
	CompactInterval time.Duration

	// EntryTTL bounds how long a pending entry is retried.
	EntryTTL time.Duration

	// GCRatio is passed to badger's RunValueLogGC.
	GCRatio float64

	// CloseTimeout bounds Close.
	CloseTimeout time.Duration

	// Badger tuning. ValueThreshold must fit in badger's batch limit, which
	// is 15% of MemTableSize.
	MemTableSize     int64
	ValueThreshold   int64
	ValueLogFileSize int64
	NumCompactors    int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Path:             "/data/wal",
		SyncWrites:       true,
		RetryInterval:    30 * time.Second,
		MaxRetries:       100,
		RetryBackoff:     5 * time.Second,
		MaxBackoff:       5 * time.Minute,
		CompactInterval:  time.Hour,
		EntryTTL:         24 * time.Hour,
		GCRatio:          0.5,
		CloseTimeout:     30 * time.Second,
		MemTableSize:     16 << 20,
		ValueThreshold:   1 << 20,
		ValueLogFileSize: 64 << 20,
		NumCompactors:    2,
	}
}

// ConfigFrom applies the wal section to DefaultConfig.
func ConfigFrom(c *config.WALConfig) Config {
	cfg := DefaultConfig()
	cfg.Path = c.Path
	cfg.SyncWrites = c.SyncWrites
	cfg.RetryInterval = c.RetryInterval
	cfg.MaxRetries = c.MaxRetries
	cfg.RetryBackoff = c.RetryBackoff
	cfg.CompactInterval = c.CompactInterval
	cfg.EntryTTL = c.EntryTTL
	return cfg
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch {
	case c.Path == "":
		return &ConfigError{Field: "Path", Message: "required"}
	case c.RetryInterval <= 0:
		return &ConfigError{Field: "RetryInterval", Message: "must be positive"}
	case c.MaxRetries < 1:
		return &ConfigError{Field: "MaxRetries", Message: "must be at least 1"}
	case c.RetryBackoff <= 0:
		return &ConfigError{Field: "RetryBackoff", Message: "must be positive"}
	case c.CompactInterval <= 0:
		return &ConfigError{Field: "CompactInterval", Message: "must be positive"}
	case c.EntryTTL <= 0:
		return &ConfigError{Field: "EntryTTL", Message: "must be positive"}
	case c.GCRatio <= 0 || c.GCRatio >= 1:
		return &ConfigError{Field: "GCRatio", Message: "must be between 0 and 1"}
	case c.NumCompactors < 2:
		return &ConfigError{Field: "NumCompactors", Message: "badger needs at least 2"}
	case c.ValueThreshold > maxBatchSize(c.MemTableSize):
		return &ConfigError{Field: "ValueThreshold", Message: "must not exceed 15% of MemTableSize"}
	case c.ValueLogFileSize != 0 && (c.ValueLogFileSize < 1<<20 || c.ValueLogFileSize >= 2<<30):
		return &ConfigError{Field: "ValueLogFileSize", Message: "must be between 1MB and 2GB"}
	}
	return nil
}

// maxBatchSize mirrors badger's batch limit for a memtable size. Zero
// means badger's default memtable.
func maxBatchSize(memTableSize int64) int64 {
	if memTableSize <= 0 {
		memTableSize = 64 << 20
	}
	return memTableSize * 15 / 100
}
