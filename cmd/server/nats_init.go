// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/twinpulse/internal/config"
	"github.com/tomtom215/twinpulse/internal/eventprocessor"
	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/supervisor/services"
)

// BrokerComponents holds the broker side of ingest: the publisher every
// ReadingSink sends through and the settings for the consuming router.
//
// With NATS enabled the broker is JetStream (embedded or external). With
// NATS disabled an in-process gochannel carries sensor.data so the same
// router middleware and pipeline still run. Readings published while no
// router is subscribed are dropped.
type BrokerComponents struct {
	server    *eventprocessor.EmbeddedServer
	conn      *natsgo.Conn
	stream    *eventprocessor.StreamInitializer
	publisher *eventprocessor.Publisher
	channel   *gochannel.GoChannel

	natsURL   string
	natsCfg   config.NATSConfig
	routerCfg eventprocessor.RouterConfig
	logger    watermill.LoggerAdapter

	router atomic.Pointer[eventprocessor.Router]
}

// InitBroker starts or connects to the broker and creates the publisher.
//
//nolint:gocyclo // multi-step initialization with cleanup on every failure
func InitBroker(ctx context.Context, cfg *config.Config) (*BrokerComponents, error) {
	b := &BrokerComponents{
		natsCfg:   cfg.NATS,
		routerCfg: eventprocessor.RouterConfigFrom(&cfg.NATS),
		logger:    eventprocessor.NewWatermillLogger(),
	}

	if !cfg.NATS.Enabled {
		logging.Warn().Msg("NATS disabled (NATS_ENABLED=false); readings use an in-process channel and are not durable")
		// Publish waits for the ack so the single router subscriber sees
		// readings in publish order.
		b.channel = gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            1024,
			BlockPublishUntilSubscriberAck: true,
		}, b.logger)
		pub, err := eventprocessor.WrapPublisher(b.channel)
		if err != nil {
			return nil, err
		}
		b.publisher = pub
		return b, nil
	}

	logging.Info().Msg("Initializing NATS JetStream...")

	if cfg.NATS.EmbeddedServer {
		serverCfg := eventprocessor.DefaultServerConfig()
		serverCfg.StoreDir = cfg.NATS.StoreDir
		if cfg.NATS.MaxMemory > 0 {
			serverCfg.JetStreamMaxMem = cfg.NATS.MaxMemory
		}
		if cfg.NATS.MaxStore > 0 {
			serverCfg.JetStreamMaxStore = cfg.NATS.MaxStore
		}
		server, err := eventprocessor.NewEmbeddedServer(&serverCfg)
		if err != nil {
			return nil, err
		}
		b.server = server
		b.natsURL = server.ClientURL()
		logging.Info().Str("url", b.natsURL).Msg("Embedded NATS server started")
	} else {
		b.natsURL = cfg.NATS.URL
		logging.Info().Str("url", b.natsURL).Msg("Using external NATS server")
	}

	nc, err := natsgo.Connect(b.natsURL,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		b.Shutdown(context.Background())
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	b.conn = nc

	js, err := jetstream.New(nc)
	if err != nil {
		b.Shutdown(context.Background())
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := eventprocessor.StreamConfigFrom(&cfg.NATS)
	streamInit, err := eventprocessor.NewStreamInitializer(js, &streamCfg)
	if err != nil {
		b.Shutdown(context.Background())
		return nil, fmt.Errorf("create stream initializer: %w", err)
	}
	b.stream = streamInit

	if _, err := streamInit.EnsureStream(ctx); err != nil {
		b.Shutdown(context.Background())
		return nil, fmt.Errorf("ensure stream exists: %w", err)
	}
	logging.Info().Str("stream", streamCfg.Name).Dur("max_age", streamCfg.MaxAge).Msg("JetStream stream ready")

	pub, err := eventprocessor.NewPublisher(eventprocessor.DefaultPublisherConfig(b.natsURL), b.logger)
	if err != nil {
		b.Shutdown(context.Background())
		return nil, err
	}
	if cfg.NATS.CircuitBreakerEnabled {
		pub.SetCircuitBreaker(eventprocessor.NewCircuitBreaker(eventprocessor.DefaultCircuitBreakerConfig("nats-publisher")))
	}
	b.publisher = pub

	return b, nil
}

// Publisher returns the broker publisher.
func (b *BrokerComponents) Publisher() *eventprocessor.Publisher {
	return b.publisher
}

// RouterFactory returns a factory building a fresh router and subscriber
// bound to processor. A closed watermill router cannot run again, so the
// supervisor calls the factory on every restart.
func (b *BrokerComponents) RouterFactory(processor eventprocessor.ReadingProcessor) services.RouterFactory {
	return func() (services.MessageRouter, error) {
		handler, err := eventprocessor.NewSensorHandler(processor)
		if err != nil {
			return nil, err
		}
		sub, err := b.newSubscriber()
		if err != nil {
			return nil, err
		}

		routerCfg := b.routerCfg
		router, err := eventprocessor.NewRouter(&routerCfg, b.publisher.WatermillPublisher(), b.logger)
		if err != nil {
			_ = sub.Close()
			return nil, err
		}
		router.AddConsumerHandler(eventprocessor.HandlerSensorIngest, eventprocessor.SubjectSensorData, sub, handler.Handle)
		b.router.Store(router)
		return router, nil
	}
}

func (b *BrokerComponents) newSubscriber() (message.Subscriber, error) {
	if b.channel != nil {
		return keepOpenSubscriber{b.channel}, nil
	}
	subCfg := eventprocessor.SubscriberConfigFrom(&b.natsCfg, b.natsURL)
	sub, err := eventprocessor.NewSubscriber(&subCfg, b.logger)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// keepOpenSubscriber stops the router from closing the shared gochannel,
// which the publisher still writes to.
type keepOpenSubscriber struct {
	message.Subscriber
}

func (keepOpenSubscriber) Close() error { return nil }

// RegisterHealth adds the broker components to h.
func (b *BrokerComponents) RegisterHealth(h *eventprocessor.HealthChecker) {
	h.RegisterComponent("router", eventprocessor.HealthCheckFunc(func(ctx context.Context) eventprocessor.ComponentHealth {
		router := b.router.Load()
		if router == nil {
			return eventprocessor.ComponentHealth{Name: "router", Error: "Router not started", LastCheck: time.Now()}
		}
		return router.HealthCheck(ctx)
	}))
	if b.stream != nil {
		h.RegisterComponent("jetstream", b.stream)
	}
	if b.conn != nil {
		h.RegisterComponent("nats", eventprocessor.HealthCheckFunc(func(context.Context) eventprocessor.ComponentHealth {
			health := eventprocessor.ComponentHealth{Name: "nats", LastCheck: time.Now()}
			if !b.conn.IsConnected() {
				health.Error = "NATS connection " + b.conn.Status().String()
				return health
			}
			health.Healthy = true
			return health
		}))
	}
}

// Shutdown closes the publisher, the connection and the embedded server.
// It must run after the broker router has stopped. Safe on nil.
func (b *BrokerComponents) Shutdown(ctx context.Context) {
	if b == nil {
		return
	}
	if b.publisher != nil {
		if err := b.publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing broker publisher")
		}
	}
	if b.channel != nil {
		if err := b.channel.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing in-process channel")
		}
	}
	if b.conn != nil {
		b.conn.Close()
	}
	if b.server != nil {
		if err := b.server.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("Error shutting down embedded NATS server")
		}
	}
	logging.Info().Msg("Broker shut down")
}
