// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

// Package testinfra provides containers for integration tests.
//
// Everything here is behind the integration build tag and uses
// testcontainers-go:
//
//	func TestPresignRoundTrip(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    mc, err := testinfra.NewMinIOContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, mc)
//	    // point StorageConfig.Endpoint at mc.Endpoint
//	}
//
// Run with: go test -tags integration ./...
package testinfra
