// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package models

// Trial is one test run, opened and closed by the TestStart point.
type Trial struct {
	ID             int64  `json:"id" db:"id"`
	Name           string `json:"name" db:"name"`
	RunNo          string `json:"runNo" db:"run_no"`
	Mode           string `json:"mode" db:"mode"`
	StartTimestamp int64  `json:"startTimestamp" db:"start_timestamp"`
	EndTimestamp   *int64 `json:"endTimestamp" db:"end_timestamp"`
}

// TrialFilter narrows GET /api/trial/list and /api/trial/count.
type TrialFilter struct {
	Name  string // substring match
	RunNo string // exact match
	Date  string // yyyyMMdd, matched against the start day in local time
	Page  int    // from 0
	Size  int
}

// TrialListResponse is a page of trials plus the unpaged total.
type TrialListResponse struct {
	TotalCount int64   `json:"totalCount"`
	Trials     []Trial `json:"trials"`
}

// TrialCountResponse answers GET /api/trial/count.
type TrialCountResponse struct {
	TotalCount int64 `json:"totalCount"`
}

// ReplayStarted answers POST /api/trial/{id}/history_data.
type ReplayStarted struct {
	SubscribeID string `json:"subscribeId"`
}
