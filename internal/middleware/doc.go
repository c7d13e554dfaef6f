// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

/*
Package middleware provides HTTP middleware shared by every route.

Key Components:

  - RequestID: X-Request-ID propagation into the logging context
  - RequestLogger: one log line per request
  - PrometheusMetrics: request totals, durations and in-flight gauge,
    labelled by chi route pattern
  - SecurityHeaders: nosniff, frame denial, referrer policy, HSTS over TLS

All of them have the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Group(func(r chi.Router) {
	    r.Use(middleware.SecurityHeaders)
	    r.Use(middleware.PrometheusMetrics)
	    r.Get("/api/alarms/all", h.AllAlarms)
	})

Authentication and authorization live in the auth and authz packages.
*/
package middleware
