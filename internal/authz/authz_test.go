// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package authz

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/twinpulse/internal/auth"
	"github.com/tomtom215/twinpulse/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

func newTestEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(DefaultEnforcerConfig())
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestEnforcer_RoleMatrix(t *testing.T) {
	e := newTestEnforcer(t)

	want := map[string][]Permission{
		auth.RoleViewer:   {PermDataView, PermAlarmView},
		auth.RoleOperator: {PermDataView, PermDataSend, PermAlarmView, PermAlarmOperate, PermFileAccess},
		auth.RoleAdmin:    {PermDataView, PermDataSend, PermAlarmView, PermAlarmOperate, PermPointManage, PermFileAccess},
		"stranger":        nil,
	}
	for role, perms := range want {
		if diff := cmp.Diff(perms, e.Permissions(role)); diff != "" {
			t.Errorf("%s permissions mismatch (-want +got):\n%s", role, diff)
		}
	}
}

func TestEnforcer_CachedDecisionIsStable(t *testing.T) {
	e := newTestEnforcer(t)
	for range 3 {
		ok, err := e.Allowed(auth.RoleViewer, PermPointManage)
		if err != nil || ok {
			t.Fatalf("viewer point_manage = %v, %v", ok, err)
		}
	}
	if _, err := e.Allowed("", PermDataView); err == nil {
		t.Error("empty role must be an error")
	}
	if _, err := e.Allowed(auth.RoleAdmin, Permission("nounderscore")); err == nil {
		t.Error("malformed permission must be an error")
	}
}

func TestEnforcer_PolicyOverride(t *testing.T) {
	dir := t.TempDir()
	policy := filepath.Join(dir, "policy.csv")
	if err := os.WriteFile(policy, []byte("p, viewer, file, access\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	e, err := NewEnforcer(EnforcerConfig{PolicyPath: policy})
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := e.Allowed(auth.RoleViewer, PermFileAccess); !ok {
		t.Error("override policy not applied")
	}
	if ok, _ := e.Allowed(auth.RoleViewer, PermDataView); ok {
		t.Error("embedded policy must not apply when overridden")
	}
}

func TestMiddleware_RequirePermission(t *testing.T) {
	mw := NewMiddleware(newTestEnforcer(t))
	h := mw.RequirePermission(PermAlarmOperate)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name    string
		subject *auth.Subject
		status  int
	}{
		{"operator", &auth.Subject{Username: "op", Role: auth.RoleOperator}, http.StatusNoContent},
		{"viewer", &auth.Subject{Username: "v", Role: auth.RoleViewer}, http.StatusForbidden},
		{"no subject", nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/alarms/1/ack", nil)
			if tt.subject != nil {
				req = req.WithContext(auth.WithSubject(req.Context(), tt.subject))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}
