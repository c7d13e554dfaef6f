// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	_ suture.Service = (*HTTPServerService)(nil)
	_ suture.Service = (*RunnerService)(nil)
	_ suture.Service = (*StartStopService)(nil)
	_ suture.Service = (*BrokerRouterService)(nil)
)

type fakeHTTPServer struct {
	listenErr error
	stop      chan struct{}
	shutdowns atomic.Int32
}

func newFakeHTTPServer() *fakeHTTPServer {
	return &fakeHTTPServer{stop: make(chan struct{})}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	close(f.stop)
	return nil
}

func serveAndCancel(t *testing.T, svc suture.Service) error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
		return nil
	}
}

func TestHTTPServerService(t *testing.T) {
	t.Run("graceful shutdown", func(t *testing.T) {
		srv := newFakeHTTPServer()
		err := serveAndCancel(t, NewHTTPServerService(srv, time.Second))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v", err)
		}
		if srv.shutdowns.Load() != 1 {
			t.Errorf("Shutdown called %d times", srv.shutdowns.Load())
		}
	})

	t.Run("listen failure", func(t *testing.T) {
		srv := newFakeHTTPServer()
		srv.listenErr = errors.New("address already in use")
		err := NewHTTPServerService(srv, 0).Serve(context.Background())
		if err == nil || !errors.Is(err, srv.listenErr) {
			t.Errorf("err = %v", err)
		}
	})

	if got := NewHTTPServerService(newFakeHTTPServer(), -time.Second).shutdownTimeout; got != 10*time.Second {
		t.Errorf("default timeout = %v", got)
	}
}

type fakeRunner struct{ runs atomic.Int32 }

func (f *fakeRunner) RunWithContext(ctx context.Context) error {
	f.runs.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func TestRunnerService(t *testing.T) {
	r := &fakeRunner{}
	svc := NewRunnerService("websocket-hub", r)
	if svc.String() != "websocket-hub" {
		t.Errorf("String = %q", svc.String())
	}
	if err := serveAndCancel(t, svc); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if r.runs.Load() != 1 {
		t.Errorf("runs = %d", r.runs.Load())
	}
}

type fakeStartStopper struct {
	startErr error
	running  atomic.Bool
	stops    atomic.Int32
}

func (f *fakeStartStopper) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.running.Store(true)
	return nil
}

func (f *fakeStartStopper) Stop() {
	f.stops.Add(1)
	f.running.Store(false)
}

func (f *fakeStartStopper) IsRunning() bool { return f.running.Load() }

func TestStartStopService(t *testing.T) {
	c := &fakeStartStopper{}
	svc := NewWALCompactorService(c)
	if err := serveAndCancel(t, svc); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if c.stops.Load() != 1 || c.IsRunning() {
		t.Errorf("stops = %d running = %v", c.stops.Load(), c.IsRunning())
	}

	failing := &fakeStartStopper{startErr: errors.New("wal closed")}
	err := NewWALRetryLoopService(failing).Serve(context.Background())
	if !errors.Is(err, failing.startErr) {
		t.Errorf("err = %v", err)
	}
	if failing.stops.Load() != 0 {
		t.Error("Stop called after failed Start")
	}
}

type fakeRouter struct {
	runErr error
	closes *atomic.Int32
}

func (f fakeRouter) Run(ctx context.Context) error {
	if f.runErr != nil {
		return f.runErr
	}
	<-ctx.Done()
	return nil
}

func (f fakeRouter) Close() error {
	f.closes.Add(1)
	return nil
}

func TestBrokerRouterService(t *testing.T) {
	var built, closes atomic.Int32
	svc := NewBrokerRouterService(func() (MessageRouter, error) {
		built.Add(1)
		return fakeRouter{closes: &closes}, nil
	})
	if err := serveAndCancel(t, svc); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if built.Load() != 1 || closes.Load() != 1 {
		t.Errorf("built = %d closes = %d", built.Load(), closes.Load())
	}

	runErr := errors.New("subscribe failed")
	svc = NewBrokerRouterService(func() (MessageRouter, error) {
		return fakeRouter{runErr: runErr, closes: &closes}, nil
	})
	if err := svc.Serve(context.Background()); !errors.Is(err, runErr) {
		t.Errorf("err = %v", err)
	}

	setupErr := errors.New("nats down")
	svc = NewBrokerRouterService(func() (MessageRouter, error) { return nil, setupErr })
	if err := svc.Serve(context.Background()); !errors.Is(err, setupErr) {
		t.Errorf("err = %v", err)
	}
}
