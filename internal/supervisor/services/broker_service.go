// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package services

import (
	"context"
	"errors"
	"fmt"
)

// MessageRouter is the lifecycle of the watermill consumer router.
type MessageRouter interface {
	Run(ctx context.Context) error
	Close() error
}

// RouterFactory builds a fresh router. A closed watermill router cannot be
// run again, so every restart gets a new one.
type RouterFactory func() (MessageRouter, error)

// BrokerRouterService consumes readings from the broker under supervision.
type BrokerRouterService struct {
	factory RouterFactory
	name    string
}

// NewBrokerRouterService creates the wrapper.
func NewBrokerRouterService(factory RouterFactory) *BrokerRouterService {
	return &BrokerRouterService{factory: factory, name: "broker-router"}
}

// Serve implements suture.Service.
func (s *BrokerRouterService) Serve(ctx context.Context) error {
	router, err := s.factory()
	if err != nil {
		return fmt.Errorf("broker router setup failed: %w", err)
	}
	defer router.Close() //nolint:errcheck // closing an already stopped router

	err = router.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		err = errors.New("router stopped unexpectedly")
	}
	return fmt.Errorf("broker router: %w", err)
}

func (s *BrokerRouterService) String() string {
	return s.name
}
