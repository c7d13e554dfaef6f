// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// recordingProcessor collects readings and can fail the first N calls.
type recordingProcessor struct {
	mu       sync.Mutex
	failures int
	calls    int
	readings []*models.SensorData
	got      chan *models.SensorData
}

func newRecordingProcessor(failures int) *recordingProcessor {
	return &recordingProcessor{failures: failures, got: make(chan *models.SensorData, 128)}
}

func (p *recordingProcessor) Process(_ context.Context, r *models.SensorData) error {
	p.mu.Lock()
	p.calls++
	if p.calls <= p.failures {
		p.mu.Unlock()
		return errors.New("transient")
	}
	p.readings = append(p.readings, r)
	p.mu.Unlock()
	p.got <- r
	return nil
}

func (p *recordingProcessor) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// newGoChannel delivers without waiting for acks; tests that read the
// subscription after publishing use it.
func newGoChannel() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
		Persistent:          true,
	}, watermill.NopLogger{})
}

// newOrderedGoChannel blocks each publish until the subscriber acks, as
// the server's in-process broker does.
func newOrderedGoChannel() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            64,
		BlockPublishUntilSubscriberAck: true,
	}, watermill.NopLogger{})
}

func testRouterConfig(poisonTopic string) *RouterConfig {
	return &RouterConfig{
		CloseTimeout:         time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: time.Millisecond,
		RetryMaxInterval:     5 * time.Millisecond,
		RetryMultiplier:      2,
		PoisonQueueTopic:     poisonTopic,
	}
}

// startRouter wires processor behind a router on pubsub and runs it until
// the test ends.
func startRouter(t *testing.T, pubsub *gochannel.GoChannel, cfg *RouterConfig, poison message.Publisher, processor ReadingProcessor) *Router {
	t.Helper()

	router, err := NewRouter(cfg, poison, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	handler, err := NewSensorHandler(processor)
	if err != nil {
		t.Fatalf("NewSensorHandler: %v", err)
	}
	router.AddConsumerHandler(HandlerSensorIngest, SubjectSensorData, pubsub, handler.Handle)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = router.Run(ctx)
		close(done)
	}()

	select {
	case <-router.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}

	t.Cleanup(func() {
		cancel()
		_ = router.Close()
		<-done
	})
	return router
}

func waitReading(t *testing.T, p *recordingProcessor) *models.SensorData {
	t.Helper()
	select {
	case r := <-p.got:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reading")
		return nil
	}
}

func TestRouterDeliversReadingsInOrder(t *testing.T) {
	pubsub := newOrderedGoChannel()
	defer pubsub.Close()

	processor := newRecordingProcessor(0)
	router := startRouter(t, pubsub, testRouterConfig(""), nil, processor)

	pub, err := WrapPublisher(pubsub)
	if err != nil {
		t.Fatalf("WrapPublisher: %v", err)
	}

	ids := make([]string, 100)
	for i := range ids {
		ids[i] = fmt.Sprintf("sensor-%03d", i)
	}
	for _, id := range ids {
		reading := &models.SensorData{ID: id, Timestamp: 1, Points: map[string]any{models.PointHeatFlux: 1.5}}
		if err := pub.PublishReading(context.Background(), reading); err != nil {
			t.Fatalf("PublishReading(%s): %v", id, err)
		}
	}

	for _, want := range ids {
		got := waitReading(t, processor)
		if got.ID != want {
			t.Errorf("reading ID = %q, want %q", got.ID, want)
		}
	}

	if !router.IsRunning() {
		t.Error("IsRunning() = false while running")
	}
	health := router.HealthCheck(context.Background())
	if !health.Healthy {
		t.Errorf("HealthCheck = %+v, want healthy", health)
	}
	if n := router.Metrics().MessagesProcessed.Load(); n != int64(len(ids)) {
		t.Errorf("MessagesProcessed = %d, want %d", n, len(ids))
	}
}

func TestRouterRetriesTransientErrors(t *testing.T) {
	pubsub := newOrderedGoChannel()
	defer pubsub.Close()

	processor := newRecordingProcessor(2)
	router := startRouter(t, pubsub, testRouterConfig(""), nil, processor)

	pub, _ := WrapPublisher(pubsub)
	reading := &models.SensorData{ID: "retry-me", Points: map[string]any{}}
	if err := pub.PublishReading(context.Background(), reading); err != nil {
		t.Fatalf("PublishReading: %v", err)
	}

	got := waitReading(t, processor)
	if got.ID != "retry-me" {
		t.Errorf("reading ID = %q", got.ID)
	}
	if calls := processor.callCount(); calls != 3 {
		t.Errorf("processor calls = %d, want 3", calls)
	}
	if n := router.Metrics().MessagesFailed.Load(); n != 2 {
		t.Errorf("MessagesFailed = %d, want 2", n)
	}
}

func TestRouterPoisonsUndecodable(t *testing.T) {
	pubsub := newOrderedGoChannel()
	defer pubsub.Close()

	const poisonTopic = "sensor.poison"
	poisoned, err := pubsub.Subscribe(context.Background(), poisonTopic)
	if err != nil {
		t.Fatalf("Subscribe poison: %v", err)
	}

	processor := newRecordingProcessor(0)
	router := startRouter(t, pubsub, testRouterConfig(poisonTopic), pubsub, processor)

	// Publish blocks until the poisoned copy is acked below.
	published := make(chan error, 1)
	go func() {
		published <- pubsub.Publish(SubjectSensorData, message.NewMessage("bad-1", []byte("{not json")))
	}()

	select {
	case msg := <-poisoned:
		if string(msg.Payload) != "{not json" {
			t.Errorf("poisoned payload = %q", msg.Payload)
		}
		msg.Ack()
	case <-time.After(5 * time.Second):
		t.Fatal("undecodable message was not routed to the poison queue")
	}
	select {
	case err := <-published:
		if err != nil {
			t.Fatalf("Publish: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Publish did not return after the poisoned message was acked")
	}

	if calls := processor.callCount(); calls != 0 {
		t.Errorf("processor called %d times for undecodable payload", calls)
	}
	if n := router.Metrics().MessagesPoisoned.Load(); n < 1 {
		t.Errorf("MessagesPoisoned = %d, want >= 1", n)
	}
}

func TestRouterDropsUndecodableWithoutPoisonQueue(t *testing.T) {
	pubsub := newOrderedGoChannel()
	defer pubsub.Close()

	processor := newRecordingProcessor(0)
	startRouter(t, pubsub, testRouterConfig(""), nil, processor)

	if err := pubsub.Publish(SubjectSensorData, message.NewMessage("bad-1", []byte("[1,2]"))); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	pub, _ := WrapPublisher(pubsub)
	if err := pub.PublishReading(context.Background(), &models.SensorData{ID: "after-bad"}); err != nil {
		t.Fatalf("PublishReading: %v", err)
	}

	if got := waitReading(t, processor); got.ID != "after-bad" {
		t.Errorf("reading ID = %q, want after-bad", got.ID)
	}
}

func TestRouterHealthWhenStopped(t *testing.T) {
	router, err := NewRouter(nil, nil, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	health := router.HealthCheck(context.Background())
	if health.Healthy {
		t.Error("stopped router reported healthy")
	}
	if health.Error == "" {
		t.Error("expected an error message")
	}
}
