// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

/*
Package cache provides a generic, thread-safe LRU cache with TTL expiry.

It backs the trial history cache: merged history of a trial is kept for
replay.cache_ttl after it was built, at most replay.cache_size trials, least
recently used first out. The authz enforcer caches role decisions in one
too.

	c := cache.NewLRU[int64, []models.HistoryData](1000, 30*time.Minute)
	c.Add(trial.ID, history)
	if h, ok := c.Get(trial.ID); ok {
		...
	}

Expiry is lazy: an expired entry is dropped when it is next read or when
CleanupExpired runs.
*/
package cache
