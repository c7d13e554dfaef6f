// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	baseURL string
	token   string
	timeout time.Duration
}

func (o *globalOptions) client() (*Client, error) {
	return NewClient(o.baseURL, o.token, o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "twinctl",
		Short:         "Exercise a TwinPulse server",
		Long:          "Health checks, reading ingest, presigned file round trips and WebSocket topic watching against a TwinPulse server.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", "http://localhost:8081", "TwinPulse server URL")
	root.PersistentFlags().StringVar(&opts.token, "token", "", "JWT sent as Bearer token")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "HTTP request timeout")

	root.AddCommand(
		newHealthCmd(opts),
		newSendCmd(opts),
		newFilesCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
