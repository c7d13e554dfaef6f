// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

// Package wal is a BadgerDB write-ahead log in front of the broker publish.
//
// When wal.enabled is set, an ingested reading is written here before it is
// published to JetStream and confirmed once the broker has accepted it:
//
//	Write ─► publish ─► Confirm
//	  │         ✗
//	  │         └─► entry stays pending
//	  ▼
//	RetryLoop (every retry_interval) ─► republish with exponential backoff
//	Compactor (every compact_interval) ─► drop confirmed and expired, value-log GC
//
// Entry ids start with the zero-padded write time in nanoseconds, so pending
// entries are iterated, and republished, in write order. The reading id is
// stored as the broker message id; JetStream drops a republish that arrives
// inside its duplicate window.
//
// Entries older than entry_ttl, or that failed max_retries times, are removed
// and counted in wal_expired_total.
package wal
