// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

/*
Package main is the entry point for the TwinPulse server.

TwinPulse sits between test-rig sensors and digital twin clients. Readings
arrive over REST or MQTT, pass through NATS JetStream, and are persisted to
DuckDB, checked against point thresholds and pushed to WebSocket
subscribers.

# Application Architecture

The server runs under Suture v4 supervision:

	RootSupervisor ("twinpulse")
	├── DataSupervisor ("data-layer")
	│   ├── point-registry
	│   ├── wal-retry-loop     (WAL_ENABLED)
	│   └── wal-compactor      (WAL_ENABLED)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── websocket-hub
	│   ├── alarm-analyzer
	│   ├── broker-router
	│   └── mqtt-bridge        (MQTT_ENABLED)
	└── APISupervisor ("api-layer")
	    └── http-server

Component initialization order:

 1. Configuration: Koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog
 3. Database: DuckDB schema and admin seed
 4. Point registry: first snapshot loaded before ingest starts
 5. WebSocket hub, alarm analyzer, trial service
 6. Broker: embedded or external NATS, or an in-process channel when
    NATS_ENABLED=false
 7. WAL (optional): BadgerDB buffer in front of publish
 8. MQTT bridge and object storage (optional)
 9. Authentication and Casbin authorization
 10. Supervisor tree and HTTP server

# Configuration

	HTTP_PORT=8081
	LOG_LEVEL=info
	AUTH_MODE=jwt                # jwt or none
	JWT_SECRET=<32+ chars>
	ADMIN_USERNAME=admin
	ADMIN_PASSWORD=<password>
	NATS_ENABLED=true
	NATS_EMBEDDED=true
	DUCKDB_PATH=/data/twinpulse.duckdb
	WAL_ENABLED=false
	MQTT_ENABLED=false
	MINIO_ENABLED=false

# Signal Handling

SIGINT and SIGTERM cancel the root context. Services stop in reverse
layer order: the HTTP server drains first, then the router finishes
in-flight messages, then the data layer stops. Resources opened in main
(database, WAL, NATS connection) are closed after the tree returns.
*/
package main
