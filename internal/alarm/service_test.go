// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package alarm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/twinpulse/internal/config"
	"github.com/tomtom215/twinpulse/internal/database"
	"github.com/tomtom215/twinpulse/internal/models"
)

func openDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Path: database.MemoryPath, Threads: 1})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// seedAlarms creates one device with a point and three alarms: two on the
// device, one on a device that does not exist.
func seedAlarms(t *testing.T, db *database.DB, now time.Time) (deviceID int64, alarmIDs []int64) {
	t.Helper()
	ctx := context.Background()

	dev := &models.Device{Name: "炉体"}
	if err := db.CreateDevice(ctx, dev); err != nil {
		t.Fatal(err)
	}
	limit := 100.0
	pt := &models.Point{Identity: "T1", Name: "温度", Unit: "℃", Path: "/a/b", DeviceID: dev.ID, Alarmable: true, UpperLimit: &limit}
	if err := db.CreatePoint(ctx, pt); err != nil {
		t.Fatal(err)
	}

	mk := func(ts time.Time, device int64, point string) int64 {
		a := &models.Alarm{
			Timestamp:       ts.UnixMilli(),
			SensorID:        "s-" + point,
			SensorTimestamp: ts.UnixMilli(),
			PointID:         point,
			PointValue:      "120.00",
			AlarmType:       models.AlarmTypeUpper,
			AlarmThreshold:  "100",
			DeviceID:        device,
			State:           models.AlarmUnconfirmed,
		}
		if err := db.InsertAlarm(ctx, a); err != nil {
			t.Fatal(err)
		}
		return a.ID
	}
	alarmIDs = append(alarmIDs,
		mk(now.Add(-time.Minute), dev.ID, "T1"),
		mk(now.AddDate(-2, 0, 0), dev.ID, "T1"),
		mk(now.Add(-2*time.Minute), 4242, "Ghost"),
	)
	return dev.ID, alarmIDs
}

func TestService_ListAndCount(t *testing.T) {
	db := openDB(t)
	now := time.Now()
	deviceID, _ := seedAlarms(t, db, now)
	svc := NewService(db)
	ctx := context.Background()

	n, err := svc.CountInRange(ctx, "今日")
	if err != nil {
		t.Fatalf("CountInRange: %v", err)
	}
	// Both recent alarms fall today unless the test straddles midnight.
	if n < 1 || n > 2 {
		t.Errorf("today count = %d", n)
	}
	if _, err := svc.CountInRange(ctx, "forever"); !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("bad range error = %v", err)
	}

	all, err := svc.List(ctx, ListQuery{Page: 0, Size: 10})
	if err != nil {
		t.Fatal(err)
	}
	if all.TotalCount != 3 || len(all.Alarms) != 3 {
		t.Fatalf("List all = %d/%d", all.TotalCount, len(all.Alarms))
	}
	first := all.Alarms[0]
	if first.DeviceName != "炉体" || first.PointName != "温度" || first.AlarmTime == "" {
		t.Errorf("first item = %+v", first)
	}
	ghost := all.Alarms[1]
	if ghost.DeviceName != database.UnknownDevicePrefix+"4242" || ghost.PointName != "" {
		t.Errorf("ghost item = %+v", ghost)
	}

	// Device filter wins over time range.
	byDevice, err := svc.List(ctx, ListQuery{DeviceID: &deviceID, TimeRange: "today", Size: 1})
	if err != nil {
		t.Fatal(err)
	}
	if byDevice.TotalCount != 2 || len(byDevice.Alarms) != 1 {
		t.Errorf("List by device = %d/%d", byDevice.TotalCount, len(byDevice.Alarms))
	}

	year, err := svc.List(ctx, ListQuery{TimeRange: "year", Size: 10})
	if err != nil {
		t.Fatal(err)
	}
	if year.TotalCount != 2 {
		t.Errorf("year total = %d, want 2", year.TotalCount)
	}
}

func TestService_QueriesAndDetail(t *testing.T) {
	db := openDB(t)
	deviceID, ids := seedAlarms(t, db, time.Now())
	svc := NewService(db)
	ctx := context.Background()

	byPoint, err := svc.ByPoint(ctx, "T1")
	if err != nil || len(byPoint) != 2 {
		t.Errorf("ByPoint = %d, %v", len(byPoint), err)
	}
	bySensor, err := svc.BySensor(ctx, "s-Ghost")
	if err != nil || len(bySensor) != 1 {
		t.Errorf("BySensor = %d, %v", len(bySensor), err)
	}
	if _, err := svc.ByState(ctx, "BOGUS", nil); err == nil {
		t.Error("ByState should reject unknown states")
	}

	if err := svc.Ack(ctx, ids[0]); err != nil {
		t.Fatalf("Ack: %v", err)
	}
	if err := svc.Ignore(ctx, ids[0]); err != nil {
		t.Fatalf("Ignore: %v", err)
	}
	if err := svc.Ack(ctx, 999999); !errors.Is(err, ErrAlarmNotFound) {
		t.Errorf("Ack unknown = %v, want ErrAlarmNotFound", err)
	}

	ignored, err := svc.ByState(ctx, models.AlarmIgnored, &deviceID)
	if err != nil || len(ignored) != 1 {
		t.Errorf("ByState ignored = %d, %v", len(ignored), err)
	}

	d, err := svc.Detail(ctx, ids[0], true, 1)
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if d.DeviceName != "炉体" || d.PointUnit != "℃" || d.PointPath != "/a/b" || d.AlarmState != string(models.AlarmIgnored) {
		t.Errorf("detail = %+v", d)
	}
	if len(d.OperateLogs) != 1 || d.OperateLogs[0].OperateAction != models.OperateIgnore {
		t.Errorf("operate logs = %+v", d.OperateLogs)
	}

	ghost, err := svc.Detail(ctx, ids[2], false, 0)
	if err != nil {
		t.Fatalf("Detail ghost: %v", err)
	}
	if ghost.PointID != 0 || ghost.OperateLogs != nil {
		t.Errorf("ghost detail = %+v", ghost)
	}

	latest, err := svc.LatestByDevice(ctx, deviceID)
	if err != nil || latest.AlarmID != ids[0] {
		t.Errorf("LatestByDevice = %+v, %v", latest, err)
	}
	if _, err := svc.Detail(ctx, 999999, false, 0); !errors.Is(err, ErrAlarmNotFound) {
		t.Errorf("Detail unknown = %v", err)
	}
}
