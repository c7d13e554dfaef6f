// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

/*
Package supervisor runs the gateway's long-lived services under a suture v4
tree.

	twinpulse
	├── data-layer
	│   ├── point-registry
	│   ├── wal-retry-loop      (WAL_ENABLED)
	│   └── wal-compactor       (WAL_ENABLED)
	├── messaging-layer
	│   ├── websocket-hub
	│   ├── alarm-analyzer
	│   ├── broker-router       (NATS_ENABLED)
	│   └── mqtt-bridge         (MQTT_ENABLED)
	└── api-layer
	    └── http-server

Each layer counts failures on its own, so a broker outage that keeps the
router restarting does not take the HTTP server down with it. Crashed
services restart with backoff once FailureThreshold is exceeded. Events are
logged through sutureslog into the zerolog pipeline.

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(&cfg.Supervisor))
	if err != nil {
	    return err
	}
	tree.AddMessagingService(services.NewRunnerService("websocket-hub", hub))
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))
	return tree.Serve(ctx)
*/
package supervisor
