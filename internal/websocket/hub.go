// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package websocket

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Config sizes the hub's queues and the per-client inbound limit.
type Config struct {
	SendBuffer      int
	BroadcastBuffer int
	FrameRate       float64
	FrameBurst      int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		SendBuffer:      256,
		BroadcastBuffer: 256,
		FrameRate:       20,
		FrameBurst:      40,
	}
}

type outbound struct {
	topic string
	data  []byte
}

type subscription struct {
	client    *Client
	topic     string
	subscribe bool
}

type reply struct {
	client *Client
	data   []byte
}

// Hub maintains the set of active clients and their topic subscriptions.
// Membership is mutated only by the goroutine running RunWithContext; mu
// guards it for the read-only accessors.
type Hub struct {
	cfg Config

	clients map[*Client]bool
	topics  map[string]map[*Client]bool

	broadcast     chan outbound
	subscriptions chan subscription
	replies       chan reply
	Register      chan *Client
	Unregister    chan *Client

	mu   sync.RWMutex
	done chan struct{}
}

// NewHub creates a new Hub. Zero config fields take DefaultConfig values.
func NewHub(cfg Config) *Hub {
	def := DefaultConfig()
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.BroadcastBuffer <= 0 {
		cfg.BroadcastBuffer = def.BroadcastBuffer
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = def.FrameRate
	}
	if cfg.FrameBurst <= 0 {
		cfg.FrameBurst = def.FrameBurst
	}

	return &Hub{
		cfg:           cfg,
		clients:       make(map[*Client]bool),
		topics:        make(map[string]map[*Client]bool),
		broadcast:     make(chan outbound, cfg.BroadcastBuffer),
		subscriptions: make(chan subscription),
		replies:       make(chan reply),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		done:          make(chan struct{}),
	}
}

// RunWithContext runs the hub until ctx is canceled. It is designed for use
// with suture supervision and may be called again after it returns.
//
// Priority order on every iteration:
//  1. Context cancellation
//  2. Client lifecycle and subscription changes
//  3. Broadcast frames
//
// Handling membership first means a subscribe that was acknowledged is in
// effect for every frame published after the acknowledgement.
func (h *Hub) RunWithContext(ctx context.Context) error {
	h.markRunning()
	defer h.markStopped()

	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		case sub := <-h.subscriptions:
			h.handleSubscription(sub)
			continue
		case r := <-h.replies:
			h.deliver(r.client, r.data)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case sub := <-h.subscriptions:
			h.handleSubscription(sub)
		case r := <-h.replies:
			h.deliver(r.client, r.data)
		case msg := <-h.broadcast:
			h.broadcastToClients(msg)
		}
	}
}

// stopped returns a channel that is closed while the hub is not running
// after a run has ended. Before the first run it is open, so early
// registrations wait for the hub.
func (h *Hub) stopped() <-chan struct{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.done
}

// markRunning re-arms done when a previous run closed it.
func (h *Hub) markRunning() {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
		h.done = make(chan struct{})
	default:
	}
}

// markStopped closes done and leaves it closed until the next run, so
// client goroutines still sending to the hub give up instead of blocking.
func (h *Hub) markStopped() {
	h.mu.Lock()
	defer h.mu.Unlock()
	close(h.done)
}

// Publish queues payload for every subscriber of topic. It never blocks:
// when the broadcast queue is full the frame is dropped.
func (h *Hub) Publish(topic string, payload any) {
	if !ValidTopic(topic) {
		logging.Warn().Str("topic", topic).Msg("publish to unknown websocket topic ignored")
		return
	}
	data, err := encodeMessage(topic, payload)
	if err != nil {
		metrics.WSErrors.WithLabelValues("encode").Inc()
		logging.Error().Err(err).Str("topic", topic).Msg("failed to encode websocket frame")
		return
	}

	select {
	case h.broadcast <- outbound{topic: topic, data: data}:
	default:
		metrics.WSFramesDropped.WithLabelValues("queue_full").Inc()
		logging.Warn().Str("topic", topic).Msg("websocket broadcast queue full, frame dropped")
	}
}

// ServeWS upgrades the request and attaches the connection to the hub.
// username is recorded for logging only.
func (h *Hub) ServeWS(upgrader *websocket.Upgrader, w http.ResponseWriter, r *http.Request, username string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		metrics.WSErrors.WithLabelValues("upgrade").Inc()
		logging.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(h, conn, username)
	select {
	case h.Register <- client:
	case <-h.stopped():
		_ = conn.Close()
		return
	}
	client.Start()
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().
		Uint64("client_id", c.id).
		Str("username", c.username).
		Int("total_clients", total).
		Msg("websocket client connected")
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	h.dropLocked(c)
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().
		Uint64("client_id", c.id).
		Int("total_clients", total).
		Msg("websocket client disconnected")
}

// dropLocked removes c from every map and closes its send channel.
func (h *Hub) dropLocked(c *Client) {
	delete(h.clients, c)
	for topic, subs := range h.topics {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	close(c.send)
}

func (h *Hub) handleSubscription(s subscription) {
	h.mu.Lock()
	if !h.clients[s.client] {
		h.mu.Unlock()
		return
	}
	frameType := FrameSubscribed
	if s.subscribe {
		subs := h.topics[s.topic]
		if subs == nil {
			subs = make(map[*Client]bool)
			h.topics[s.topic] = subs
		}
		subs[s.client] = true
	} else {
		frameType = FrameUnsubscribed
		if subs := h.topics[s.topic]; subs != nil {
			delete(subs, s.client)
			if len(subs) == 0 {
				delete(h.topics, s.topic)
			}
		}
	}
	h.mu.Unlock()

	logging.Debug().
		Uint64("client_id", s.client.id).
		Str("topic", s.topic).
		Bool("subscribe", s.subscribe).
		Msg("websocket subscription changed")
	h.deliver(s.client, encodeFrame(ServerFrame{Type: frameType, Topic: s.topic}))
}

// deliver queues data on one client, disconnecting it when its buffer is full.
func (h *Hub) deliver(c *Client, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
		metrics.WSFramesDropped.WithLabelValues("slow_client").Inc()
		logging.Warn().Uint64("client_id", c.id).Msg("websocket client too slow, disconnecting")
		h.dropLocked(c)
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

// broadcastToClients sends a frame to the topic's subscribers in client id
// order.
func (h *Hub) broadcastToClients(msg outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.topics[msg.topic]
	if len(subs) == 0 {
		return
	}
	clients := make([]*Client, 0, len(subs))
	for c := range subs {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var slow []*Client
	for _, c := range clients {
		select {
		case c.send <- msg.data:
		default:
			slow = append(slow, c)
		}
	}

	for _, c := range slow {
		metrics.WSFramesDropped.WithLabelValues("slow_client").Inc()
		logging.Warn().
			Uint64("client_id", c.id).
			Str("topic", msg.topic).
			Msg("websocket client too slow, disconnecting")
		h.dropLocked(c)
	}
	if len(slow) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

// logGracefulShutdown closes every client and logs why the hub stopped.
// ctx.Err() is not logged as an error because cancellation is the expected
// shutdown path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
	}
	h.clients = make(map[*Client]bool)
	h.topics = make(map[string]map[*Client]bool)
	metrics.WSConnections.Set(0)
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TopicSubscriberCount returns the number of clients subscribed to topic.
func (h *Hub) TopicSubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
