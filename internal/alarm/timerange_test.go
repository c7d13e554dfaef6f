// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package alarm

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeRange
		wantErr bool
	}{
		{"today", RangeToday, false},
		{"WEEK", RangeWeek, false},
		{" month ", RangeMonth, false},
		{"year", RangeYear, false},
		{"今日", RangeToday, false},
		{"本周", RangeWeek, false},
		{"本月", RangeMonth, false},
		{"全年", RangeYear, false},
		{"", "", true},
		{"decade", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeRange(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTimeRange) {
					t.Errorf("ParseTimeRange(%q) error = %v, want ErrInvalidTimeRange", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseTimeRange(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestTimeRangeBounds(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	// Wednesday
	now := time.Date(2026, 10, 14, 15, 30, 0, 0, loc)
	// Sunday
	sunday := time.Date(2026, 10, 18, 9, 0, 0, 0, loc)

	tests := []struct {
		name  string
		r     TimeRange
		now   time.Time
		start time.Time
	}{
		{"today", RangeToday, now, time.Date(2026, 10, 14, 0, 0, 0, 0, loc)},
		{"week midweek", RangeWeek, now, time.Date(2026, 10, 12, 0, 0, 0, 0, loc)},
		{"week on sunday", RangeWeek, sunday, time.Date(2026, 10, 12, 0, 0, 0, 0, loc)},
		{"month", RangeMonth, now, time.Date(2026, 10, 1, 0, 0, 0, 0, loc)},
		{"year", RangeYear, now, time.Date(2026, 1, 1, 0, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := tt.r.Bounds(tt.now)
			if from != tt.start.UnixMilli() {
				t.Errorf("from = %v, want %v", time.UnixMilli(from).In(loc), tt.start)
			}
			if to != tt.now.UnixMilli() {
				t.Errorf("to = %d, want now %d", to, tt.now.UnixMilli())
			}
		})
	}
}
