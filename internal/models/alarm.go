// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package models

import "time"

// AlarmState is the operator-facing state of an alarm.
type AlarmState string

const (
	AlarmUnconfirmed AlarmState = "UNCONFIRMED"
	AlarmConfirmed   AlarmState = "CONFIRMED"
	AlarmIgnored     AlarmState = "IGNORED"
)

// Valid reports whether s is a known state.
func (s AlarmState) Valid() bool {
	switch s {
	case AlarmUnconfirmed, AlarmConfirmed, AlarmIgnored:
		return true
	}
	return false
}

// Alarm types.
const (
	AlarmTypeState     = "状态告警"
	AlarmTypeUpperHigh = "上上限告警"
	AlarmTypeUpper     = "上限告警"
	AlarmTypeLowerLow  = "下下限告警"
	AlarmTypeLower     = "下限告警"
)

// LimitAlarmTypes are the numeric alarm types, in evaluation order.
var LimitAlarmTypes = []string{AlarmTypeUpperHigh, AlarmTypeUpper, AlarmTypeLowerLow, AlarmTypeLower}

// Operate log actions.
const (
	OperateAck    = "确认告警"
	OperateIgnore = "忽略告警"
)

// Alarm is one raised alarm. Timestamps are unix milliseconds.
type Alarm struct {
	ID                  int64      `json:"id" db:"id"`
	Timestamp           int64      `json:"timestamp" db:"timestamp"`
	SensorID            string     `json:"sensorId" db:"sensor_id"`
	SensorTimestamp     int64      `json:"sensorTimestamp" db:"sensor_timestamp"`
	PointID             string     `json:"pointId" db:"point_id"`
	PointValue          string     `json:"pointValue" db:"point_value"`
	AlarmType           string     `json:"alarmType" db:"alarm_type"`
	AlarmThreshold      string     `json:"alarmThreshold" db:"alarm_threshold"`
	DeviceID            int64      `json:"deviceId" db:"device_id"`
	LastSensorTimestamp int64      `json:"lastSensorTimestamp" db:"last_sensor_timestamp"`
	EndTimestamp        *int64     `json:"endTimestamp" db:"end_timestamp"`
	State               AlarmState `json:"state" db:"state"`
	CreatedAt           time.Time  `json:"createdAt" db:"created_at"`
}

// Ended reports whether the alarm condition has cleared.
func (a *Alarm) Ended() bool {
	return a.EndTimestamp != nil
}

// AlarmOperateLog records one operator action on an alarm.
type AlarmOperateLog struct {
	ID            int64     `json:"id" db:"id"`
	AlarmID       int64     `json:"alarmId" db:"alarm_id"`
	OperateAction string    `json:"operateAction" db:"operate_action"`
	OperateTime   time.Time `json:"operateTime" db:"operate_time"`
}

// AlarmNotification is pushed on /topic/alarm-data when an alarm is created.
type AlarmNotification struct {
	AlarmID       int64  `json:"alarmId"`
	DeviceID      int64  `json:"deviceId"`
	DeviceName    string `json:"deviceName"`
	AlarmType     string `json:"alarmType"`
	PointIdentity string `json:"pointIdentity"`
}

// AlarmListItem is one row of the paginated alarm list.
type AlarmListItem struct {
	AlarmID           int64  `json:"alarmId" db:"alarm_id"`
	DeviceID          int64  `json:"deviceId" db:"device_id"`
	DeviceName        string `json:"deviceName" db:"device_name"`
	AlarmType         string `json:"alarmType" db:"alarm_type"`
	AlarmState        string `json:"alarmState" db:"alarm_state"`
	PointID           string `json:"pointId" db:"point_id"`
	PointName         string `json:"pointName" db:"point_name"`
	AlarmThreshold    string `json:"alarmThreshold" db:"alarm_threshold"`
	AlarmValue        string `json:"alarmValue" db:"alarm_value"`
	AlarmTimestamp    int64  `json:"alarmTimestamp" db:"alarm_timestamp"`
	AlarmEndTimestamp *int64 `json:"alarmEndTimestamp" db:"alarm_end_timestamp"`
	AlarmTime         string `json:"alarmTime" db:"-"`
	AlarmEndTime      string `json:"alarmEndTime,omitempty" db:"-"`
}

// AlarmListResponse is a page of alarms plus the unpaged total.
type AlarmListResponse struct {
	TotalCount int64           `json:"totalCount"`
	Alarms     []AlarmListItem `json:"alarms"`
}

// AlarmCountResponse answers the count-by-range query.
type AlarmCountResponse struct {
	TotalCount int64 `json:"totalCount"`
}

// AlarmDetail is an alarm joined with its point and device.
type AlarmDetail struct {
	AlarmID                  int64             `json:"alarmId"`
	Timestamp                int64             `json:"timestamp"`
	FormattedTimestamp       string            `json:"formattedTimestamp"`
	SensorTimestamp          int64             `json:"sensorTimestamp"`
	FormattedSensorTimestamp string            `json:"formattedSensorTimestamp"`
	AlarmType                string            `json:"alarmType"`
	AlarmThreshold           string            `json:"alarmThreshold"`
	AlarmValue               string            `json:"alarmValue"`
	AlarmState               string            `json:"alarmState"`
	PointID                  int64             `json:"pointId,omitempty"`
	PointIdentity            string            `json:"pointIdentity"`
	PointPath                string            `json:"pointPath,omitempty"`
	PointUnit                string            `json:"pointUnit,omitempty"`
	DeviceID                 int64             `json:"deviceId"`
	DeviceName               string            `json:"deviceName"`
	EndTimestamp             *int64            `json:"endTimestamp"`
	OperateLogs              []AlarmOperateLog `json:"operateLogs,omitempty"`
}
