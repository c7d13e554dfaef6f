// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

// Package main provides the TwinPulse HTTP server
//
// TwinPulse API ingests test-rig sensor readings, raises threshold alarms
// and replays trial history to digital twin clients.
//
// @title TwinPulse API
// @version 1.0
// @description Telemetry gateway between test-rig sensors and digital twin clients
// @description
// @description ## Features
// @description
// @description - **Ingest**: REST and MQTT readings routed through NATS JetStream
// @description - **Alarms**: upper/lower limit and state alarms with ack and ignore
// @description - **Trials**: TestStart-driven trial records with rate-controlled replay
// @description - **Real-time Updates**: WebSocket topic subscriptions
// @description - **Files**: presigned MinIO upload and download URLs
// @description
// @description ## Authentication
// @description
// @description Endpoints outside /api/health and /api/auth/login require a JWT.
// @description Send it as `Authorization: Bearer <token>` or in the `token` cookie set by `/api/auth/login`.
// @description
// @description ## Response Envelope
// @description
// @description Every response uses the same envelope:
// @description ```json
// @description {
// @description   "code": 200,
// @description   "message": "success",
// @description   "timestamp": "2026-01-02 15:04:05",
// @description   "data": {}
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/twinpulse/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8081
// @BasePath /api
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT as "Bearer <token>". Obtain via /api/auth/login.
//
// @tag.name Health
// @tag.description Liveness and readiness
//
// @tag.name Auth
// @tag.description Login and current subject
//
// @tag.name Sensor
// @tag.description Reading ingest and latest values
//
// @tag.name Alarms
// @tag.description Alarm queries and operator actions
//
// @tag.name Points
// @tag.description Devices, monitoring points and failure records
//
// @tag.name Trials
// @tag.description Trial records, history and replay
//
// @tag.name Files
// @tag.description Presigned object storage URLs
package main
