// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package alarm

import (
	"fmt"
	"strings"
	"time"
)

// TimeRange is a calendar window ending now.
type TimeRange string

const (
	RangeToday TimeRange = "today"
	RangeWeek  TimeRange = "week"
	RangeMonth TimeRange = "month"
	RangeYear  TimeRange = "year"
)

var rangeAliases = map[string]TimeRange{
	"today": RangeToday,
	"week":  RangeWeek,
	"month": RangeMonth,
	"year":  RangeYear,
	"今日":    RangeToday,
	"本周":    RangeWeek,
	"本月":    RangeMonth,
	"全年":    RangeYear,
}

// ParseTimeRange accepts the English names and their Chinese labels.
func ParseTimeRange(s string) (TimeRange, error) {
	if r, ok := rangeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTimeRange, s)
}

// Bounds returns [start, now] in unix milliseconds. Days start at local
// midnight and weeks on Monday.
func (r TimeRange) Bounds(now time.Time) (from, to int64) {
	y, m, d := now.Date()
	loc := now.Location()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)

	var start time.Time
	switch r {
	case RangeWeek:
		// time.Sunday is 0; shift so Monday is day 0.
		offset := (int(now.Weekday()) + 6) % 7
		start = midnight.AddDate(0, 0, -offset)
	case RangeMonth:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case RangeYear:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		start = midnight
	}
	return start.UnixMilli(), now.UnixMilli()
}
