// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	ws "github.com/tomtom215/twinpulse/internal/websocket"
)

type watchOptions struct {
	topics         []string
	count          int
	reconnectDelay time.Duration
	pingInterval   time.Duration
}

func newWatchCmd(opts *globalOptions) *cobra.Command {
	wo := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Subscribe to WebSocket topics and print frames",
		Long: `Connects to /api/ws, subscribes to each --topic and prints every frame.
The connection is re-established after a drop until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, t := range wo.topics {
				if !ws.ValidTopic(t) {
					return fmt.Errorf("unknown topic %q (valid: %v)", t, ws.Topics)
				}
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			return watch(cmd.Context(), c.WebSocketURL(), wo, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringSliceVar(&wo.topics, "topic", []string{ws.TopicSensorData}, "topic to subscribe (repeatable)")
	cmd.Flags().IntVar(&wo.count, "count", 0, "exit after this many message frames (0 runs until interrupted)")
	cmd.Flags().DurationVar(&wo.reconnectDelay, "reconnect", 5*time.Second, "delay before reconnecting")
	cmd.Flags().DurationVar(&wo.pingInterval, "ping", 4*time.Second, "ping interval")
	return cmd
}

var errWatchDone = errors.New("watch done")

// watch reconnects until ctx is canceled or count message frames arrived.
func watch(ctx context.Context, url string, o *watchOptions, out io.Writer) error {
	received := 0
	for {
		err := watchOnce(ctx, url, o, out, &received)
		if errors.Is(err, errWatchDone) {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprintf(out, "connection lost: %v; reconnecting in %s\n", err, o.reconnectDelay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(o.reconnectDelay):
		}
	}
}

func watchOnce(ctx context.Context, url string, o *watchOptions, out io.Writer, received *int) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, t := range o.topics {
		if err := conn.WriteJSON(ws.ClientFrame{Action: ws.ActionSubscribe, Topic: t}); err != nil {
			return err
		}
	}

	// gorilla allows one concurrent writer; the reader never writes.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(o.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
				_ = conn.Close()
				return
			case <-ticker.C:
				if err := conn.WriteJSON(ws.ClientFrame{Action: ws.ActionPing}); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var frame ws.ServerFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			fmt.Fprintf(out, "unparsable frame: %s\n", data)
			continue
		}
		switch frame.Type {
		case ws.FramePong:
			continue
		case ws.FrameMessage:
			fmt.Fprintf(out, "%s %s\n", frame.Topic, frame.Payload)
			*received++
			if o.count > 0 && *received >= o.count {
				return errWatchDone
			}
		default:
			fmt.Fprintf(out, "%s %s %s\n", frame.Type, frame.Topic, frame.Message)
		}
	}
}
