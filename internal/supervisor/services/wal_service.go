// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package services

import (
	"context"
	"fmt"
)

// StartStopper is the lifecycle of the WAL retry loop and compactor.
type StartStopper interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
}

// StartStopService adapts Start/Stop to suture's Serve: Start, wait for
// cancellation, then Stop, which waits for the background goroutine.
type StartStopService struct {
	component StartStopper
	name      string
}

// NewWALRetryLoopService supervises the loop that republishes WAL entries
// whose broker publish failed.
func NewWALRetryLoopService(retryLoop StartStopper) *StartStopService {
	return &StartStopService{component: retryLoop, name: "wal-retry-loop"}
}

// NewWALCompactorService supervises periodic removal of confirmed and
// expired WAL entries.
func NewWALCompactorService(compactor StartStopper) *StartStopService {
	return &StartStopService{component: compactor, name: "wal-compactor"}
}

// Serve implements suture.Service. A Start failure is returned so suture
// restarts the service with backoff.
func (s *StartStopService) Serve(ctx context.Context) error {
	if err := s.component.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}
	<-ctx.Done()
	s.component.Stop()
	return ctx.Err()
}

func (s *StartStopService) String() string {
	return s.name
}
