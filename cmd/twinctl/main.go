// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

// Command twinctl exercises a running TwinPulse server: health checks,
// sending readings, presigned file round trips and watching WebSocket
// topics.
//
//	twinctl health
//	twinctl send --heat-flux 12.5 --cooling-temp 18 --phase heating --point EStop=false
//	twinctl files flow --file ./report.pdf
//	twinctl watch --topic /topic/alarm-data
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
