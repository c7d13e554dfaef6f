// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

/*
Package api serves the TwinPulse REST API and the WebSocket endpoint.

# Responses

Every JSON answer is a models.Envelope:

	{"code":200,"message":"success","timestamp":"2026-03-01T10:00:00.000","data":{...}}

Errors use the same shape with code equal to the HTTP status and a null
data field. Validation failures carry the offending fields as data.
Internal error text is logged with the request ID and never returned.

# Routes

	GET    /api/health                          public
	GET    /api/health/ready                    public
	POST   /api/auth/login                      public, 5 per 5 minutes per IP
	GET    /api/auth/me                         any authenticated subject
	GET    /api/health/websocket                data_view
	POST   /api/sensor/send                     data_send, rate limited
	GET    /api/sensor/history?limit=N          data_view
	GET    /api/alarms/...                      alarm_view
	POST   /api/alarms/{alarmId}/ack|ignore     alarm_operate
	GET    /api/devices, /api/points[/{id}]     data_view
	POST   /api/devices, /api/points            point_manage
	PUT    /api/points/{id}                     point_manage
	DELETE /api/points/{id}                     point_manage
	GET    /api/point-failures                  data_view
	*      /api/trial/...                       data_view
	*      /api/simulations/files/...           file_access, rate limited
	GET    /ws, /api/ws                         authenticated
	GET    /metrics, /swagger/*                 public

Handlers depend on small interfaces (see Deps) so tests can substitute
fakes for the database, broker and object storage.
*/
package api
