// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/twinpulse/internal/auth"
	"github.com/tomtom215/twinpulse/internal/authz"
	"github.com/tomtom215/twinpulse/internal/config"
	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type testServer struct {
	http.Handler
	jwt      *auth.JWTManager
	sink     *fakeSink
	readings *fakeReadings
	alarms   *fakeAlarms
	points   *fakePoints
	trials   *fakeTrials
}

func newTestServer(t *testing.T, mutate func(*Deps), chiCfg *ChiMiddlewareConfig) *testServer {
	t.Helper()
	jm, err := auth.NewJWTManager(&config.SecurityConfig{
		JWTSecret:      "api-test-secret-with-enough-length!!",
		SessionTimeout: time.Hour,
	})
	if err != nil {
		t.Fatal(err)
	}
	enf, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		t.Fatal(err)
	}

	ts := &testServer{
		jwt:      jm,
		sink:     &fakeSink{},
		readings: &fakeReadings{},
		alarms:   &fakeAlarms{},
		points:   &fakePoints{},
		trials:   &fakeTrials{},
	}
	deps := Deps{
		Sink:        ts.sink,
		Readings:    ts.readings,
		Alarms:      ts.alarms,
		Points:      ts.points,
		Trials:      ts.trials,
		Logins:      fakeLogins{},
		Permissions: enf,
		Readiness:   fakeReadiness{healthy: true},
	}
	if mutate != nil {
		mutate(&deps)
	}
	h := NewHandler(deps)
	h.now = func() time.Time { return fixedNow }

	if chiCfg == nil {
		chiCfg = DefaultChiMiddlewareConfig()
		chiCfg.RateLimitDisabled = true
	}
	ts.Handler = NewRouter(h, auth.NewMiddleware(config.AuthModeJWT, jm), authz.NewMiddleware(enf), NewChiMiddleware(chiCfg)).SetupChi()
	return ts
}

// do issues a request as role; an empty role sends no token.
func (ts *testServer) do(t *testing.T, role, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		token, _, err := ts.jwt.GenerateToken(role+"-user", role)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope[T any](t *testing.T, rec *httptest.ResponseRecorder) models.Envelope[T] {
	t.Helper()
	var env models.Envelope[T]
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestRouter_StatusMatrix(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	tests := []struct {
		name   string
		role   string
		method string
		target string
		body   string
		status int
	}{
		{"health is public", "", http.MethodGet, "/api/health", "", http.StatusOK},
		{"ready is public", "", http.MethodGet, "/api/health/ready", "", http.StatusOK},
		{"history needs a token", "", http.MethodGet, "/api/sensor/history", "", http.StatusUnauthorized},
		{"viewer cannot send", auth.RoleViewer, http.MethodPost, "/api/sensor/send", `{"HeatFlux":1,"CoolingWater_In_Temp":2}`, http.StatusForbidden},
		{"bad JSON", auth.RoleOperator, http.MethodPost, "/api/sensor/send", `{"HeatFlux":`, http.StatusBadRequest},
		{"limit too small", auth.RoleViewer, http.MethodGet, "/api/sensor/history?limit=0", "", http.StatusBadRequest},
		{"limit too large", auth.RoleViewer, http.MethodGet, "/api/sensor/history?limit=1001", "", http.StatusBadRequest},
		{"unknown alarm state", auth.RoleViewer, http.MethodGet, "/api/alarms/state/bogus", "", http.StatusBadRequest},
		{"alarm not found", auth.RoleViewer, http.MethodGet, "/api/alarms/detail/99", "", http.StatusNotFound},
		{"bad alarm id", auth.RoleViewer, http.MethodGet, "/api/alarms/detail/abc", "", http.StatusBadRequest},
		{"unknown time range", auth.RoleViewer, http.MethodGet, "/api/alarms/count?timeRange=decade", "", http.StatusBadRequest},
		{"viewer cannot ack", auth.RoleViewer, http.MethodPost, "/api/alarms/1/ack", "", http.StatusForbidden},
		{"operator acks", auth.RoleOperator, http.MethodPost, "/api/alarms/1/ack", "", http.StatusOK},
		{"viewer reads points", auth.RoleViewer, http.MethodGet, "/api/points/10", "", http.StatusOK},
		{"point not found", auth.RoleViewer, http.MethodGet, "/api/points/11", "", http.StatusNotFound},
		{"operator cannot define points", auth.RoleOperator, http.MethodPost, "/api/points", `{"identity":"X","deviceId":1}`, http.StatusForbidden},
		{"admin defines points", auth.RoleAdmin, http.MethodPost, "/api/points", `{"identity":"X","deviceId":1}`, http.StatusCreated},
		{"admin creates devices", auth.RoleAdmin, http.MethodPost, "/api/devices", `{"name":"furnace"}`, http.StatusCreated},
		{"bad trial date", auth.RoleViewer, http.MethodGet, "/api/trial/list?date=2026-03-01", "", http.StatusBadRequest},
		{"trial count", auth.RoleViewer, http.MethodGet, "/api/trial/count", "", http.StatusOK},
		{"start replay", auth.RoleViewer, http.MethodPost, "/api/trial/4/history_data", "", http.StatusOK},
		{"rate of unknown replay", auth.RoleViewer, http.MethodPut, "/api/trial/replay/nope/rate?rate=2", "", http.StatusNotFound},
		{"rate not a number", auth.RoleViewer, http.MethodPut, "/api/trial/replay/1700000000000-4/rate?rate=fast", "", http.StatusBadRequest},
		{"viewer has no file access", auth.RoleViewer, http.MethodGet, "/api/simulations/files/server-info", "", http.StatusForbidden},
		{"storage disabled", auth.RoleOperator, http.MethodGet, "/api/simulations/files/server-info", "", http.StatusServiceUnavailable},
		{"websocket without hub", auth.RoleViewer, http.MethodGet, "/ws", "", http.StatusServiceUnavailable},
		{"websocket needs a token", "", http.MethodGet, "/api/ws", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.role, tt.method, tt.target, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, tt.status, rec.Body.String())
			}
			if rec.Code >= http.StatusBadRequest && rec.Code != http.StatusUnauthorized && rec.Code != http.StatusForbidden {
				if env := decodeEnvelope[any](t, rec); env.Code != tt.status {
					t.Errorf("envelope code = %d, want %d", env.Code, tt.status)
				}
			}
		})
	}
}

func TestHealth_Envelope(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	rec := ts.do(t, "", http.MethodGet, "/api/health", "")
	env := decodeEnvelope[models.HealthInfo](t, rec)
	want := models.HealthInfo{
		Status:    "UP",
		Timestamp: fixedNow.Format(models.EnvelopeTimeLayout),
		Service:   "digital-twin-websocket-server",
		Version:   "1.0.0",
	}
	if diff := cmp.Diff(want, env.Data); diff != "" {
		t.Errorf("health mismatch (-want +got):\n%s", diff)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("request ID missing")
	}
}

func TestReady_Unhealthy(t *testing.T) {
	ts := newTestServer(t, func(d *Deps) { d.Readiness = fakeReadiness{healthy: false} }, nil)
	rec := ts.do(t, "", http.MethodGet, "/api/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSendSensorData_StampsAndPublishes(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	rec := ts.do(t, auth.RoleOperator, http.MethodPost, "/api/sensor/send",
		`{"HeatFlux":12.5,"CoolingWater_In_Temp":21,"Timestamp":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope[map[string]any](t, rec)
	if env.Message != "sensor data sent to message queue" {
		t.Errorf("message = %q", env.Message)
	}

	if len(ts.sink.sent) != 1 {
		t.Fatalf("sent %d readings", len(ts.sink.sent))
	}
	got := ts.sink.sent[0]
	if !strings.HasPrefix(got.ID, models.SensorIDPrefix) {
		t.Errorf("ID = %q", got.ID)
	}
	if got.Timestamp != fixedNow.UnixMilli() {
		t.Errorf("Timestamp = %d, want receive time", got.Timestamp)
	}
	if env.Data["ID"] != got.ID {
		t.Errorf("echoed ID = %v", env.Data["ID"])
	}
}

func TestSendSensorData_KeepsClientID(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	rec := ts.do(t, auth.RoleOperator, http.MethodPost, "/api/sensor/send",
		`{"ID":"rig-7","HeatFlux":1,"CoolingWater_In_Temp":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := ts.sink.sent[0].ID; got != "rig-7" {
		t.Errorf("ID = %q", got)
	}
}

func TestQueryParameters_ReachServices(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	ts.do(t, auth.RoleViewer, http.MethodGet, "/api/sensor/history", "")
	if ts.readings.gotLimit != 10 {
		t.Errorf("default limit = %d", ts.readings.gotLimit)
	}

	ts.do(t, auth.RoleViewer, http.MethodGet, "/api/alarms/state/confirmed/device/3", "")
	if ts.alarms.gotState != models.AlarmConfirmed || ts.alarms.gotDevice == nil || *ts.alarms.gotDevice != 3 {
		t.Errorf("state query = %s %v", ts.alarms.gotState, ts.alarms.gotDevice)
	}

	ts.do(t, auth.RoleViewer, http.MethodGet, "/api/alarms/list?timeRange=week&page=2&size=5", "")
	if diff := cmp.Diff("week", ts.alarms.gotQuery.TimeRange); diff != "" || ts.alarms.gotQuery.Page != 2 || ts.alarms.gotQuery.Size != 5 {
		t.Errorf("list query = %+v", ts.alarms.gotQuery)
	}

	ts.do(t, auth.RoleViewer, http.MethodGet, "/api/trial/list?name=arc&runNo=R1&date=20260301", "")
	want := models.TrialFilter{Name: "arc", RunNo: "R1", Date: "20260301", Page: 0, Size: defaultPageSize}
	if diff := cmp.Diff(want, ts.trials.filter); diff != "" {
		t.Errorf("trial filter mismatch (-want +got):\n%s", diff)
	}

	ts.do(t, auth.RoleViewer, http.MethodGet, "/api/point-failures?pointId=4&activeOnly=true", "")
	if ts.points.filter.PointID == nil || *ts.points.filter.PointID != 4 || !ts.points.filter.ActiveOnly {
		t.Errorf("failure filter = %+v", ts.points.filter)
	}
}

func TestAlarmCount(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	for target, want := range map[string]int64{
		"/api/alarms/count":                 7,
		"/api/alarms/count?timeRange=today": 3,
	} {
		rec := ts.do(t, auth.RoleViewer, http.MethodGet, target, "")
		if got := decodeEnvelope[models.AlarmCountResponse](t, rec).Data.TotalCount; got != want {
			t.Errorf("%s = %d, want %d", target, got, want)
		}
	}
}

func TestCreatePoint_Validation(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	rec := ts.do(t, auth.RoleAdmin, http.MethodPost, "/api/points", `{"name":"no identity"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	env := decodeEnvelope[map[string]any](t, rec)
	if env.Data == nil {
		t.Error("validation details missing")
	}
	if ts.points.created != nil {
		t.Error("invalid point reached the service")
	}
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	rec := ts.do(t, "", http.MethodPost, "/api/auth/login", `{"username":"op","password":"op-pass"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.TokenCookie {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != "tok" || !cookie.HttpOnly {
		t.Errorf("token cookie = %+v", cookie)
	}

	if rec := ts.do(t, "", http.MethodPost, "/api/auth/login", `{"username":"op","password":"nope"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d", rec.Code)
	}
	if rec := ts.do(t, "", http.MethodPost, "/api/auth/login", `{"username":""}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty body status = %d", rec.Code)
	}
}

func TestLogin_Disabled(t *testing.T) {
	ts := newTestServer(t, func(d *Deps) { d.Logins = nil }, nil)
	if rec := ts.do(t, "", http.MethodPost, "/api/auth/login", `{"username":"a","password":"b"}`); rec.Code != http.StatusForbidden {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestLogin_RateLimited(t *testing.T) {
	ts := newTestServer(t, nil, DefaultChiMiddlewareConfig())
	var last int
	for range RateLimitLogin.Requests + 1 {
		last = ts.do(t, "", http.MethodPost, "/api/auth/login", `{"username":"op","password":"nope"}`).Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("status after %d attempts = %d", RateLimitLogin.Requests+1, last)
	}
}

func TestMe(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	rec := ts.do(t, auth.RoleViewer, http.MethodGet, "/api/auth/me", "")
	want := models.SubjectInfo{
		Username:    "viewer-user",
		Role:        auth.RoleViewer,
		Permissions: []string{"data_view", "alarm_view"},
	}
	if diff := cmp.Diff(want, decodeEnvelope[models.SubjectInfo](t, rec).Data); diff != "" {
		t.Errorf("me mismatch (-want +got):\n%s", diff)
	}
}

func TestWebSocketHealth_Disabled(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	rec := ts.do(t, auth.RoleViewer, http.MethodGet, "/api/health/websocket", "")
	info := decodeEnvelope[models.WebSocketInfo](t, rec).Data
	if info.Status != "disabled" || info.Topic != "/topic/sensor-data" || info.Endpoint != "/ws" {
		t.Errorf("info = %+v", info)
	}
}

func TestPresignedURL_RejectsInvalidRequests(t *testing.T) {
	files := &fakeFiles{}
	ts := newTestServer(t, func(d *Deps) { d.Files = files }, nil)

	tests := []struct {
		name string
		body string
	}{
		{"missing fileName", `{"operationType":"UPLOAD","expiry":30}`},
		{"missing operationType", `{"fileName":"test.txt","expiry":30}`},
		{"invalid operationType", `{"fileName":"test.txt","operationType":"INVALID","expiry":30}`},
		{"zero expiry", `{"fileName":"test.txt","operationType":"UPLOAD","expiry":0}`},
		{"negative expiry", `{"fileName":"test.txt","operationType":"UPLOAD","expiry":-1}`},
		{"expiry over a day", `{"fileName":"test.txt","operationType":"UPLOAD","expiry":1441}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, auth.RoleOperator, http.MethodPost, "/api/simulations/files/presigned-url", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
			}
			if env := decodeEnvelope[any](t, rec); env.Code != http.StatusBadRequest {
				t.Errorf("envelope code = %d", env.Code)
			}
		})
	}
	if files.calls != 0 {
		t.Errorf("presign reached the store %d times", files.calls)
	}
}

func TestPresignedURL_ExpiryTime(t *testing.T) {
	ts := newTestServer(t, func(d *Deps) { d.Files = &fakeFiles{} }, nil)

	rec := ts.do(t, auth.RoleOperator, http.MethodPost, "/api/simulations/files/presigned-url",
		`{"fileName":"test.txt","operationType":"DOWNLOAD"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope[models.PresignResponse](t, rec)
	if env.Message != "预签名URL生成成功" {
		t.Errorf("message = %q", env.Message)
	}
	if want := fixedNow.Add(time.Hour).Format(models.EnvelopeTimeLayout); env.Data.ExpiryTime != want {
		t.Errorf("expiryTime = %q, want %q", env.Data.ExpiryTime, want)
	}

	rec = ts.do(t, auth.RoleOperator, http.MethodPost, "/api/simulations/files/presigned-url",
		`{"fileName":"test.txt","operationType":"UPLOAD","expiry":30}`)
	if want := fixedNow.Add(30 * time.Minute).Format(models.EnvelopeTimeLayout); decodeEnvelope[models.PresignResponse](t, rec).Data.ExpiryTime != want {
		t.Errorf("body = %s, want expiryTime %q", rec.Body.String(), want)
	}
}

func TestStorageInfo_Message(t *testing.T) {
	ts := newTestServer(t, func(d *Deps) { d.Files = &fakeFiles{} }, nil)
	rec := ts.do(t, auth.RoleOperator, http.MethodGet, "/api/simulations/files/server-info", "")
	env := decodeEnvelope[models.StorageServerInfo](t, rec)
	if rec.Code != http.StatusOK || env.Message != "获取服务器信息成功" {
		t.Errorf("status = %d, message = %q", rec.Code, env.Message)
	}
	if env.Data.BucketName != "twin" {
		t.Errorf("info = %+v", env.Data)
	}
}
