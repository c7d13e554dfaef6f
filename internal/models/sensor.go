// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package models

import (
	"bytes"
	"fmt"
	"maps"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Well-known point keys.
const (
	PointHeatFlux    = "HeatFlux"
	PointCoolingTemp = "CoolingWater_In_Temp"
	PointTestPhase   = "TestPhase"
	PointEStop       = "EStop"
	PointTestStart   = "TestStart"
	PointTestName    = "TestName"
	PointTestRunNo   = "TestRunNo"
	PointTestMode    = "TestMode"
)

// Fixed reading fields as they appear on the wire.
const (
	FieldID         = "ID"
	FieldTimestamp  = "Timestamp"
	FieldDeviceName = "deviceName"
	FieldDeviceType = "deviceType"
	FieldDeviceTS   = "ts"
)

// SensorIDPrefix prefixes generated reading ids.
const SensorIDPrefix = "sensor-"

// MaxStoredValueLen is the longest point value persisted to the reading store.
const MaxStoredValueLen = 1999

// SensorData is a single device reading.
//
// On the wire it is a flat JSON object. ID, Timestamp, deviceName, deviceType
// and ts are fixed fields; everything else, including HeatFlux and
// CoolingWater_In_Temp, is a point and is kept in Points.
type SensorData struct {
	ID         string
	Timestamp  int64 // server receive time, unix ms
	DeviceName string
	DeviceType string
	TS         int64 // device time, unix ms; 0 when the device did not send one
	Points     map[string]any
}

// Valid reports whether the reading carries both mandatory measurements.
func (s *SensorData) Valid() bool {
	if s == nil {
		return false
	}
	_, okHeat := ToFloat(s.Points[PointHeatFlux])
	_, okCool := ToFloat(s.Points[PointCoolingTemp])
	return okHeat && okCool
}

// RealTimestamp returns the device time when present, otherwise Timestamp.
func (s *SensorData) RealTimestamp() int64 {
	if s.TS != 0 {
		return s.TS
	}
	return s.Timestamp
}

// Stamp gives the reading a generated ID when it has none and sets
// Timestamp to now.
func (s *SensorData) Stamp(now time.Time) {
	if s.ID == "" {
		s.ID = SensorIDPrefix + uuid.NewString()
	}
	s.Timestamp = now.UnixMilli()
}

// HeatFlux returns the HeatFlux point as a float.
func (s *SensorData) HeatFlux() (float64, bool) {
	return ToFloat(s.Points[PointHeatFlux])
}

// CoolingWaterInTemp returns the CoolingWater_In_Temp point as a float.
func (s *SensorData) CoolingWaterInTemp() (float64, bool) {
	return ToFloat(s.Points[PointCoolingTemp])
}

// Clone returns a copy with its own Points map. Point values are shared.
func (s *SensorData) Clone() *SensorData {
	c := *s
	if s.Points != nil {
		c.Points = maps.Clone(s.Points)
	}
	return &c
}

// WithPoints returns a copy of the fixed fields carrying the given points.
func (s *SensorData) WithPoints(points map[string]any) *SensorData {
	c := *s
	c.Points = points
	return &c
}

// MarshalJSON flattens Points next to the fixed fields.
func (s SensorData) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Points)+5)
	for k, v := range s.Points {
		out[k] = v
	}
	out[FieldID] = s.ID
	out[FieldTimestamp] = s.Timestamp
	if s.DeviceName != "" {
		out[FieldDeviceName] = s.DeviceName
	}
	if s.DeviceType != "" {
		out[FieldDeviceType] = s.DeviceType
	}
	if s.TS != 0 {
		out[FieldDeviceTS] = s.TS
	}
	return json.Marshal(out)
}

// UnmarshalJSON collects unknown top-level fields into Points. Numbers are
// decoded as json.Number. A point sent as null is kept with a nil value.
func (s *SensorData) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = SensorData{Points: make(map[string]any, len(raw))}
	for key, msg := range raw {
		v, err := decodeValue(msg)
		if err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		switch key {
		case FieldID:
			s.ID = stringOf(v)
		case FieldTimestamp:
			s.Timestamp = int64Of(v)
		case FieldDeviceName:
			s.DeviceName = stringOf(v)
		case FieldDeviceType:
			s.DeviceType = stringOf(v)
		case FieldDeviceTS:
			s.TS = int64Of(v)
		default:
			s.Points[key] = v
		}
	}
	return nil
}

func decodeValue(msg json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func stringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func int64Of(v any) int64 {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return int64(f)
		}
	case float64:
		return int64(t)
	}
	return 0
}
