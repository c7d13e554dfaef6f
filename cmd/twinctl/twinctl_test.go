// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/twinpulse/internal/models"
	ws "github.com/tomtom215/twinpulse/internal/websocket"
)

func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":      status,
		"message":   message,
		"timestamp": "2026-01-02 15:04:05",
		"data":      data,
	})
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestParsePointValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"12.5", 12.5},
		{"-3", -3.0},
		{"true", true},
		{"false", false},
		{"null", nil},
		{"heating", "heating"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := parsePointValue(tt.in); got != tt.want {
			t.Errorf("parsePointValue(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestSendOptions_InvalidPoint(t *testing.T) {
	for _, p := range []string{"novalue", "=5", " =x"} {
		o := &sendOptions{points: []string{p}}
		if _, err := o.reading(); err == nil {
			t.Errorf("point %q accepted", p)
		}
	}
}

func TestSendCmd(t *testing.T) {
	var (
		gotAuth string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/sensor/send" {
			writeEnvelope(w, http.StatusNotFound, "not found", nil)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeEnvelope(w, http.StatusOK, "sensor data sent to message queue", gotBody)
	}))
	defer srv.Close()

	out, err := runCmd(t, "--base-url", srv.URL, "--token", "tkn",
		"send", "--heat-flux", "1.5", "--cooling-temp", "20", "--phase", "heating",
		"--point", "EStop=false", "--point", "TestName=run A")
	if err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer tkn" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	want := map[string]any{
		models.PointHeatFlux:    1.5,
		models.PointCoolingTemp: 20.0,
		models.PointTestPhase:   "heating",
		models.PointEStop:       false,
		models.PointTestName:    "run A",
	}
	if diff := cmp.Diff(want, gotBody); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(out, "sensor data sent to message queue") {
		t.Errorf("output = %s", out)
	}
}

func TestHealthCmd_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusServiceUnavailable, "service unavailable", nil)
	}))
	defer srv.Close()

	_, err := runCmd(t, "--base-url", srv.URL, "health")
	if !IsStatus(err, http.StatusServiceUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "service unavailable") {
		t.Errorf("message not carried: %v", err)
	}
}

func TestNewClient_RejectsScheme(t *testing.T) {
	if _, err := NewClient("ftp://host", "", time.Second); err == nil {
		t.Error("ftp scheme accepted")
	}
}

func TestClient_WebSocketURL(t *testing.T) {
	tests := []struct {
		base, token, want string
	}{
		{"http://localhost:8081", "", "ws://localhost:8081/api/ws"},
		{"https://twin.example/", "abc", "wss://twin.example/api/ws?token=abc"},
	}
	for _, tt := range tests {
		c, err := NewClient(tt.base, tt.token, time.Second)
		if err != nil {
			t.Fatal(err)
		}
		if got := c.WebSocketURL(); got != tt.want {
			t.Errorf("WebSocketURL(%s) = %s, want %s", tt.base, got, tt.want)
		}
	}
}

// fakeStorage serves presign requests pointing back at its own /blob/ path.
type fakeStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
	srv   *httptest.Server
}

func newFakeStorage(t *testing.T) *fakeStorage {
	t.Helper()
	fs := &fakeStorage{blobs: make(map[string][]byte)}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/simulations/files/presigned-url", func(w http.ResponseWriter, r *http.Request) {
		var req models.PresignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileName == "" ||
			(req.OperationType != models.OperationUpload && req.OperationType != models.OperationDownload) ||
			(req.Expiry != nil && (*req.Expiry < 1 || *req.Expiry > 1440)) {
			writeEnvelope(w, http.StatusBadRequest, "invalid request", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, "ok", models.PresignResponse{
			PresignedURL:  fs.srv.URL + "/blob/" + req.FileName,
			FileName:      req.FileName,
			OperationType: req.OperationType,
			ExpiryTime:    models.ExpiryTimeFrom(time.Now(), req.ExpiryMinutes()),
			BucketName:    "twin",
		})
	})
	mux.HandleFunc("PUT /blob/", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		fs.mu.Lock()
		fs.blobs[strings.TrimPrefix(r.URL.Path, "/blob/")] = data
		fs.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /blob/", func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		data, ok := fs.blobs[strings.TrimPrefix(r.URL.Path, "/blob/")]
		fs.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	})
	mux.HandleFunc("GET /api/simulations/files/server-info", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusOK, "success", models.StorageServerInfo{Endpoint: "minio:9000", BucketName: "twin", Region: "us-east-1"})
	})
	fs.srv = httptest.NewServer(mux)
	t.Cleanup(fs.srv.Close)
	return fs
}

func TestFilesFlow(t *testing.T) {
	fs := newFakeStorage(t)
	file := filepath.Join(t.TempDir(), "report.bin")
	content := []byte("heat flux trace\x00\x01\x02")
	if err := os.WriteFile(file, content, 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, "--base-url", fs.srv.URL, "files", "flow", "--file", file)
	if err != nil {
		t.Fatalf("flow: %v\n%s", err, out)
	}
	if !strings.Contains(out, "content matches") {
		t.Errorf("output = %s", out)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if !bytes.Equal(fs.blobs["twinctl/report.bin"], content) {
		t.Errorf("stored blobs = %v", fs.blobs)
	}
}

func TestFilesInfo(t *testing.T) {
	fs := newFakeStorage(t)
	out, err := runCmd(t, "--base-url", fs.srv.URL, "files", "info")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"bucketName": "twin"`) {
		t.Errorf("output = %s", out)
	}
}

func TestFilesValidate(t *testing.T) {
	t.Run("server rejects every request", func(t *testing.T) {
		fs := newFakeStorage(t)
		out, err := runCmd(t, "--base-url", fs.srv.URL, "files", "validate")
		if err != nil {
			t.Fatalf("validate: %v\n%s", err, out)
		}
		if strings.Count(out, "ok ") != len(invalidPresigns) {
			t.Errorf("output = %s", out)
		}
	})

	t.Run("server accepts everything", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, http.StatusOK, "ok", models.PresignResponse{})
		}))
		defer srv.Close()
		out, err := runCmd(t, "--base-url", srv.URL, "files", "validate")
		if err == nil {
			t.Fatalf("lenient server passed validation:\n%s", out)
		}
		if strings.Count(out, "FAIL") != len(invalidPresigns) {
			t.Errorf("output = %s", out)
		}
	})
}

func TestWatchCmd(t *testing.T) {
	upgrader := websocket.Upgrader{}
	subscribed := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ws" || r.URL.Query().Get("token") != "tkn" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var frame ws.ClientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		subscribed <- frame.Topic
		_ = conn.WriteJSON(ws.ServerFrame{Type: ws.FrameSubscribed, Topic: frame.Topic})
		_ = conn.WriteJSON(ws.ServerFrame{Type: ws.FrameMessage, Topic: frame.Topic, Payload: json.RawMessage(`{"HeatFlux":1.5}`)})

		// Drain until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	out, err := runCmd(t, "--base-url", srv.URL, "--token", "tkn",
		"watch", "--topic", ws.TopicAlarmData, "--count", "1")
	if err != nil {
		t.Fatal(err)
	}
	if got := <-subscribed; got != ws.TopicAlarmData {
		t.Errorf("subscribed to %q", got)
	}
	if !strings.Contains(out, ws.TopicAlarmData+` {"HeatFlux":1.5}`) {
		t.Errorf("output = %s", out)
	}
}

func TestWatchCmd_UnknownTopic(t *testing.T) {
	if _, err := runCmd(t, "watch", "--topic", "/topic/nope"); err == nil {
		t.Error("unknown topic accepted")
	}
}
