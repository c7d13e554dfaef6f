// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package authz

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/tomtom215/twinpulse/internal/cache"
	"github.com/tomtom215/twinpulse/internal/config"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Permission names a guarded capability as <object>_<action>.
type Permission string

const (
	PermDataView     Permission = "data_view"
	PermDataSend     Permission = "data_send"
	PermAlarmView    Permission = "alarm_view"
	PermAlarmOperate Permission = "alarm_operate"
	PermPointManage  Permission = "point_manage"
	PermFileAccess   Permission = "file_access"
)

// split returns the casbin object and action of p.
func (p Permission) split() (obj, act string, err error) {
	i := strings.LastIndexByte(string(p), '_')
	if i <= 0 || i == len(p)-1 {
		return "", "", fmt.Errorf("malformed permission %q", p)
	}
	return string(p[:i]), string(p[i+1:]), nil
}

// EnforcerConfig holds configuration for the Casbin enforcer.
type EnforcerConfig struct {
	// ModelPath is the path to the Casbin model file.
	// If empty, uses embedded model.
	ModelPath string

	// PolicyPath is the path to the Casbin policy file.
	// If empty, uses embedded policy.
	PolicyPath string

	// CacheTTL bounds how long a decision is reused. Zero disables caching.
	CacheTTL  time.Duration
	CacheSize int
}

// DefaultEnforcerConfig returns the embedded policy with a 5 minute cache.
func DefaultEnforcerConfig() EnforcerConfig {
	return EnforcerConfig{CacheTTL: 5 * time.Minute, CacheSize: 256}
}

// EnforcerConfigFrom maps the security section onto an EnforcerConfig.
func EnforcerConfigFrom(cfg *config.SecurityConfig) EnforcerConfig {
	c := DefaultEnforcerConfig()
	c.ModelPath = cfg.CasbinModelPath
	c.PolicyPath = cfg.CasbinPolicyPath
	return c
}

// Enforcer decides whether a role holds a permission.
type Enforcer struct {
	enforcer  *casbin.SyncedEnforcer
	decisions *cache.LRU[string, bool]
}

// NewEnforcer loads the model and policy.
func NewEnforcer(cfg EnforcerConfig) (*Enforcer, error) {
	var (
		m   model.Model
		err error
	)
	if cfg.ModelPath != "" && fileExists(cfg.ModelPath) {
		m, err = model.NewModelFromFile(cfg.ModelPath)
	} else {
		m, err = model.NewModelFromString(embeddedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if cfg.PolicyPath != "" && fileExists(cfg.PolicyPath) {
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	e := &Enforcer{enforcer: enforcer}
	if cfg.CacheTTL > 0 {
		size := cfg.CacheSize
		if size <= 0 {
			size = 256
		}
		e.decisions = cache.NewLRU[string, bool](size, cfg.CacheTTL)
	}
	return e, nil
}

// loadEmbeddedPolicy parses and loads the embedded policy CSV.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		rule := parts[1:]
		switch parts[0] {
		case "p":
			if len(rule) != 3 {
				return fmt.Errorf("malformed policy line %q", line)
			}
			if _, err := enforcer.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", rule, err)
			}
		case "g":
			if len(rule) != 2 {
				return fmt.Errorf("malformed grouping line %q", line)
			}
			if _, err := enforcer.AddGroupingPolicy(rule[0], rule[1]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", rule, err)
			}
		default:
			return fmt.Errorf("unknown policy type %q", parts[0])
		}
	}
	return nil
}

// Allowed reports whether role holds perm.
func (e *Enforcer) Allowed(role string, perm Permission) (bool, error) {
	if role == "" {
		return false, errors.New("empty role")
	}
	key := role + "|" + string(perm)
	if e.decisions != nil {
		if allowed, ok := e.decisions.Get(key); ok {
			return allowed, nil
		}
	}

	obj, act, err := perm.split()
	if err != nil {
		return false, err
	}
	allowed, err := e.enforcer.Enforce(role, obj, act)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}

	if e.decisions != nil {
		e.decisions.Add(key, allowed)
	}
	return allowed, nil
}

// Permissions lists every permission role holds.
func (e *Enforcer) Permissions(role string) []Permission {
	all := []Permission{PermDataView, PermDataSend, PermAlarmView, PermAlarmOperate, PermPointManage, PermFileAccess}
	var out []Permission
	for _, p := range all {
		if ok, err := e.Allowed(role, p); err == nil && ok {
			out = append(out, p)
		}
	}
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
