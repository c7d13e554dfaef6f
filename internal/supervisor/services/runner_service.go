// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package services

import "context"

// ContextRunner is anything that runs until its context ends: the WebSocket
// hub, the point registry refresher and the alarm analyzer pool.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerService names a ContextRunner for suture. RunWithContext already
// has the Serve shape, so it is called directly.
type RunnerService struct {
	runner ContextRunner
	name   string
}

// NewRunnerService creates the wrapper.
func NewRunnerService(name string, runner ContextRunner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	return s.runner.RunWithContext(ctx)
}

func (s *RunnerService) String() string {
	return s.name
}
