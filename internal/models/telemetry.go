// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package models

// TestPhases are the recognised values of the TestPhase point, in run order.
var TestPhases = []string{
	"模型安装",
	"打开电源",
	"注入氛围气体",
	"开启冷却水/气阀门",
	"石英灯阵加热",
	"实时监控试验过程",
	"石英灯阵加热停止",
	"关闭冷却水/气阀门",
}

// TestPhaseItem is one row of the phase indicator.
type TestPhaseItem struct {
	Key     string `json:"key"`
	Current bool   `json:"current"`
}

// TestPhaseResponse is pushed on /topic/test-phase whenever a reading carries
// a recognised TestPhase.
type TestPhaseResponse struct {
	Phases       []TestPhaseItem `json:"phases"`
	CurrentPhase string          `json:"currentPhase"`
	Timestamp    int64           `json:"timestamp"`
}

// NewTestPhaseResponse lists every phase in order with current marked.
// ok is false when current is not a recognised phase.
func NewTestPhaseResponse(current string, ts int64) (TestPhaseResponse, bool) {
	found := false
	items := make([]TestPhaseItem, len(TestPhases))
	for i, p := range TestPhases {
		items[i] = TestPhaseItem{Key: p, Current: p == current}
		found = found || p == current
	}
	if !found {
		return TestPhaseResponse{}, false
	}
	return TestPhaseResponse{Phases: items, CurrentPhase: current, Timestamp: ts}, true
}

// HistoryCompleteMarker is the HistoryData.Timestamp that ends a replay.
const HistoryCompleteMarker int64 = -1

// HistoryData is one merged instant of a trial's history.
type HistoryData struct {
	Timestamp   int64             `json:"timestamp"`
	SubscribeID string            `json:"subscribeId,omitempty"`
	PointsData  map[string]string `json:"pointsData,omitempty"`
}

// LatestReading is a reading rebuilt from the reading store for
// GET /api/sensor/history.
type LatestReading struct {
	SensorID   string            `json:"sensorId"`
	DeviceName string            `json:"deviceName,omitempty"`
	Timestamp  int64             `json:"timestamp"`
	Points     map[string]string `json:"points"`
}

// StoredValue is one persisted (ts, value) pair of a point.
type StoredValue struct {
	TS    int64  `db:"ts_ms"`
	Value string `db:"point_value"`
}
