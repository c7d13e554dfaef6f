// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

/*
Package services adapts the gateway's components to suture.Service.

Each wrapper translates one lifecycle shape into Serve(ctx) error:

	HTTPServerService    ListenAndServe / Shutdown        http-server
	RunnerService        RunWithContext                   websocket-hub, point-registry, alarm-analyzer
	StartStopService     Start / Stop                     wal-retry-loop, wal-compactor
	BrokerRouterService  factory, then Run / Close        broker-router

The MQTT bridge implements Serve itself and is added to the tree directly.

Wrappers return ctx.Err() on shutdown and a wrapped error on failure, so
suture restarts only what actually broke.
*/
package services
