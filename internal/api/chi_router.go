// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/twinpulse/internal/auth"
	"github.com/tomtom215/twinpulse/internal/authz"
	"github.com/tomtom215/twinpulse/internal/middleware"
)

// Router wires handlers, authentication and permissions into a chi tree.
type Router struct {
	handler *Handler
	authn   *auth.Middleware
	perms   *authz.Middleware
	chi     *ChiMiddleware
}

// NewRouter creates a Router. A nil ChiMiddleware uses the defaults.
func NewRouter(handler *Handler, authn *auth.Middleware, perms *authz.Middleware, chiMW *ChiMiddleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, authn: authn, perms: perms, chi: chiMW}
}

func (router *Router) require(p authz.Permission) func(http.Handler) http.Handler {
	return router.perms.RequirePermission(p)
}

// SetupChi builds the HTTP handler.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	// Global middleware, outermost first. CORS must be global to answer
	// OPTIONS preflight before authentication.
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chi.CORS())

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// WebSocket: the browser passes the token as a query parameter.
	r.Group(func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.authn.Authenticate)
		r.Get("/ws", h.WebSocket)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.SecurityHeaders)
		r.Use(middleware.PrometheusMetrics)

		// Public
		r.Group(func(r chi.Router) {
			r.Use(router.chi.RateLimitHealth())
			r.Get("/health", h.Health)
			r.Get("/health/ready", h.Ready)
		})
		r.With(router.chi.RateLimitLogin()).Post("/auth/login", h.Login)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(router.authn.Authenticate)

			r.Get("/auth/me", h.Me)
			r.Get("/ws", h.WebSocket)
			r.With(router.require(authz.PermDataView)).Get("/health/websocket", h.WebSocketHealth)

			r.Route("/sensor", func(r chi.Router) {
				r.With(router.chi.RateLimit(), router.require(authz.PermDataSend)).Post("/send", h.SendSensorData)
				r.With(router.require(authz.PermDataView)).Get("/history", h.SensorHistory)
			})

			r.Route("/alarms", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(router.require(authz.PermAlarmView))
					r.Get("/all", h.AllAlarms)
					r.Get("/count", h.AlarmCount)
					r.Get("/list", h.AlarmList)
					r.Get("/device/{deviceId}", h.AlarmsByDevice)
					r.Get("/point/{pointId}", h.AlarmsByPoint)
					r.Get("/sensor/{sensorId}", h.AlarmsBySensor)
					r.Get("/state/{state}", h.AlarmsByState)
					r.Get("/state/{state}/device/{deviceId}", h.AlarmsByState)
					r.Get("/detail/{alarmId}", h.AlarmDetail)
					r.Get("/latest/device/{deviceId}", h.LatestAlarmByDevice)
				})
				r.Group(func(r chi.Router) {
					r.Use(router.require(authz.PermAlarmOperate))
					r.Post("/{alarmId}/ack", h.AckAlarm)
					r.Post("/{alarmId}/ignore", h.IgnoreAlarm)
				})
			})

			r.Route("/devices", func(r chi.Router) {
				r.With(router.require(authz.PermDataView)).Get("/", h.ListDevices)
				r.With(router.require(authz.PermPointManage)).Post("/", h.CreateDevice)
			})

			r.Route("/points", func(r chi.Router) {
				r.With(router.require(authz.PermDataView)).Get("/", h.ListPoints)
				r.With(router.require(authz.PermDataView)).Get("/{pointId}", h.GetPoint)
				r.Group(func(r chi.Router) {
					r.Use(router.require(authz.PermPointManage))
					r.Post("/", h.CreatePoint)
					r.Put("/{pointId}", h.UpdatePoint)
					r.Delete("/{pointId}", h.DeletePoint)
				})
			})

			r.With(router.require(authz.PermDataView)).Get("/point-failures", h.ListFailures)

			r.Route("/trial", func(r chi.Router) {
				r.Use(router.require(authz.PermDataView))
				r.Get("/list", h.ListTrials)
				r.Get("/count", h.TrialCount)
				r.Get("/{id}/history_data", h.TrialHistory)
				r.Post("/{id}/history_data", h.StartReplay)
				r.Put("/replay/{subscribeId}/rate", h.SetReplayRate)
			})

			r.Route("/simulations/files", func(r chi.Router) {
				r.Use(router.chi.RateLimitFiles())
				r.Use(router.require(authz.PermFileAccess))
				r.Post("/presigned-url", h.PresignedURL)
				r.Get("/server-info", h.StorageInfo)
			})
		})
	})

	return r
}
