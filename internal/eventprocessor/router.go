// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/twinpulse/internal/logging"
)

// RouterConfig holds configuration for the Watermill Router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// PoisonQueueTopic receives undecodable messages. Empty disables the
	// poison queue; undecodable messages are then logged and acked.
	PoisonQueueTopic string
}

// DefaultRouterConfig returns production defaults for the Router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     time.Second,
		RetryMultiplier:      2.0,
		PoisonQueueTopic:     "sensor.poison",
	}
}

// RouterMetrics holds runtime counters for the Router.
type RouterMetrics struct {
	MessagesReceived  atomic.Int64
	MessagesProcessed atomic.Int64
	MessagesFailed    atomic.Int64
	MessagesPoisoned  atomic.Int64
}

// Router wraps the Watermill Router with the sensor middleware chain.
//
// Middleware, outermost first:
//   - Retry: exponential backoff for transient handler errors
//   - PoisonQueue: ErrUndecodable goes to the poison subject and is acked
//   - counters
//   - Recoverer: handler panics become errors
//
// An error that survives the retries nacks the message so JetStream
// redelivers it.
type Router struct {
	router   *message.Router
	config   RouterConfig
	logger   watermill.LoggerAdapter
	running  atomic.Bool
	mu       sync.Mutex
	handlers map[string]*message.Handler
	stats    *RouterMetrics
}

// NewRouter creates a new Watermill Router with pre-configured middleware.
func NewRouter(cfg *RouterConfig, poisonPublisher message.Publisher, logger watermill.LoggerAdapter) (*Router, error) {
	if logger == nil {
		logger = NewWatermillLogger()
	}
	if cfg == nil {
		defaultCfg := DefaultRouterConfig()
		cfg = &defaultCfg
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	r := &Router{
		router:   wmRouter,
		config:   *cfg,
		logger:   logger,
		handlers: make(map[string]*message.Handler),
		stats:    &RouterMetrics{},
	}

	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          logger,
	}
	wmRouter.AddMiddleware(retry.Middleware)

	if poisonPublisher != nil && cfg.PoisonQueueTopic != "" {
		poisonQueue, err := middleware.PoisonQueueWithFilter(poisonPublisher, cfg.PoisonQueueTopic, isUndecodable)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poisonQueue)
	} else {
		wmRouter.AddMiddleware(dropUndecodable)
	}

	wmRouter.AddMiddleware(r.countMiddleware, middleware.Recoverer)
	return r, nil
}

func isUndecodable(err error) bool {
	return errors.Is(err, ErrUndecodable)
}

// dropUndecodable acks undecodable messages when no poison queue is configured.
func dropUndecodable(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		out, err := h(msg)
		if isUndecodable(err) {
			logging.Error().Err(err).Str("message_uuid", msg.UUID).Msg("dropping undecodable message")
			return nil, nil
		}
		return out, err
	}
}

func (r *Router) countMiddleware(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		r.stats.MessagesReceived.Add(1)
		out, err := h(msg)
		switch {
		case err == nil:
			r.stats.MessagesProcessed.Add(1)
		case isUndecodable(err):
			r.stats.MessagesPoisoned.Add(1)
		default:
			r.stats.MessagesFailed.Add(1)
		}
		return out, err
	}
}

// AddConsumerHandler registers a handler that doesn't produce output messages.
func (r *Router) AddConsumerHandler(
	name string,
	subscribeTopic string,
	subscriber message.Subscriber,
	handler message.NoPublishHandlerFunc,
) *message.Handler {
	h := r.router.AddConsumerHandler(name, subscribeTopic, subscriber, handler)
	r.mu.Lock()
	r.handlers[name] = h
	r.mu.Unlock()
	return h
}

// Run starts the router and blocks until context cancellation or Close().
func (r *Router) Run(ctx context.Context) error {
	r.running.Store(true)
	defer r.running.Store(false)
	return r.router.Run(ctx)
}

// RunAsync starts the router in a goroutine. The returned channel is closed
// once the router is running.
func (r *Router) RunAsync(ctx context.Context) <-chan struct{} {
	go func() {
		if err := r.Run(ctx); err != nil {
			r.logger.Error("Router error", err, nil)
		}
	}()
	return r.router.Running()
}

// Running returns a channel that closes when the router is running.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close gracefully stops the router, waiting up to CloseTimeout for in-flight
// messages.
func (r *Router) Close() error {
	return r.router.Close()
}

// IsRunning returns whether the router is currently processing messages.
func (r *Router) IsRunning() bool {
	return r.running.Load()
}

// Metrics returns the router counters.
func (r *Router) Metrics() *RouterMetrics {
	return r.stats
}

// HealthCheck implements HealthCheckable.
func (r *Router) HealthCheck(_ context.Context) ComponentHealth {
	health := ComponentHealth{
		Name:      "router",
		LastCheck: time.Now(),
		Details:   make(map[string]any),
	}

	if !r.IsRunning() {
		health.Error = "Router is not running"
		return health
	}

	r.mu.Lock()
	handlers := len(r.handlers)
	r.mu.Unlock()

	health.Healthy = true
	health.Message = "Router is running"
	health.Details["handlers"] = handlers
	health.Details["messages_received"] = r.stats.MessagesReceived.Load()
	health.Details["messages_processed"] = r.stats.MessagesProcessed.Load()
	health.Details["messages_failed"] = r.stats.MessagesFailed.Load()
	health.Details["messages_poisoned"] = r.stats.MessagesPoisoned.Load()
	return health
}
