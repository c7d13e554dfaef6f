// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

/*
Package websocket provides the topic-based push channel used by dashboards.

Clients connect to /ws, subscribe to one or more topics and receive every
frame published on them afterwards. The hub owns registration and topic
membership from a single goroutine, so delivery order per topic per client
matches publish order.

Topics:

  - /topic/sensor-data: filtered live readings
  - /topic/test-phase: phase indicator updates
  - /topic/alarm-data: new alarm notifications
  - /topic/history_data: trial replay frames and the completion marker

Client frames:

	{"action":"subscribe","topic":"/topic/sensor-data"}
	{"action":"unsubscribe","topic":"/topic/sensor-data"}
	{"action":"ping"}

Server frames:

	{"type":"subscribed","topic":"/topic/sensor-data"}
	{"type":"pong"}
	{"type":"error","message":"unknown topic: /topic/x"}
	{"type":"message","topic":"/topic/sensor-data","payload":{...}}

Each client has two goroutines:
  - readPump: reads frames, enforces the inbound rate limit and read deadline
  - writePump: writes queued frames and pings every 54 seconds

Usage:

	hub := websocket.NewHub(websocket.DefaultConfig())
	go hub.RunWithContext(ctx)

	upgrader := websocket.NewUpgrader(cfg.WebSocket.AllowedOrigins, devMode)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
	    hub.ServeWS(upgrader, w, r, username)
	})

	hub.Publish(websocket.TopicSensorData, models.Success(reading))

Publish never blocks. When the broadcast queue is full the frame is dropped and
counted; a client whose own send buffer is full is disconnected.
*/
package websocket
