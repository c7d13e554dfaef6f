// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

/*
Package authz maps roles to permissions with Casbin RBAC.

# Roles

Roles inherit downwards: admin holds everything operator holds, operator
everything viewer holds.

	viewer    data_view, alarm_view
	operator  + data_send, alarm_operate, file_access
	admin     + point_manage

# Policy

A permission <object>_<action> is enforced as the casbin request
(role, object, action). The model and policy are embedded; set
CASBIN_MODEL_PATH and CASBIN_POLICY_PATH to override them. Decisions are
cached in an LRU for a few minutes.

# Usage

	enf, err := authz.NewEnforcer(authz.EnforcerConfigFrom(&cfg.Security))
	if err != nil {
	    return err
	}
	perms := authz.NewMiddleware(enf)
	r.With(authn.Authenticate, perms.RequirePermission(authz.PermAlarmOperate)).
	    Post("/api/alarms/{id}/ack", h.AckAlarm)
*/
package authz
