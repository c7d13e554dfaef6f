// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/twinpulse/internal/models"
)

func newHealthCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check GET /api/health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			var info models.HealthInfo
			if _, err := c.Do(cmd.Context(), http.MethodGet, "/api/health", nil, &info); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), info)
		},
	}
}

type sendOptions struct {
	heatFlux    float64
	coolingTemp float64
	phase       string
	deviceName  string
	deviceType  string
	id          string
	points      []string
}

func newSendCmd(opts *globalOptions) *cobra.Command {
	so := &sendOptions{}
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one reading via POST /api/sensor/send",
		Long: `Builds a flat reading from the flags and sends it. --point may be repeated;
values parse as number, then bool, then null, falling back to string.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reading, err := so.reading()
			if err != nil {
				return err
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			env, err := c.Do(cmd.Context(), http.MethodPost, "/api/sensor/send", reading, nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), env)
		},
	}

	cmd.Flags().Float64Var(&so.heatFlux, "heat-flux", 0, "HeatFlux value")
	cmd.Flags().Float64Var(&so.coolingTemp, "cooling-temp", 0, "CoolingWater_In_Temp value")
	cmd.Flags().StringVar(&so.phase, "phase", "", "TestPhase value")
	cmd.Flags().StringVar(&so.deviceName, "device-name", "", "deviceName field")
	cmd.Flags().StringVar(&so.deviceType, "device-type", "", "deviceType field")
	cmd.Flags().StringVar(&so.id, "id", "", "reading ID; the server assigns one when empty")
	cmd.Flags().StringArrayVar(&so.points, "point", nil, "extra point as key=value (repeatable)")
	return cmd
}

// reading builds the flat JSON object. --point entries override the
// dedicated flags.
func (o *sendOptions) reading() (map[string]any, error) {
	r := map[string]any{
		models.PointHeatFlux:    o.heatFlux,
		models.PointCoolingTemp: o.coolingTemp,
	}
	if o.phase != "" {
		r[models.PointTestPhase] = o.phase
	}
	if o.deviceName != "" {
		r[models.FieldDeviceName] = o.deviceName
	}
	if o.deviceType != "" {
		r[models.FieldDeviceType] = o.deviceType
	}
	if o.id != "" {
		r[models.FieldID] = o.id
	}
	for _, p := range o.points {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --point %q: want key=value", p)
		}
		r[key] = parsePointValue(value)
	}
	return r, nil
}

func parsePointValue(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if s == "null" {
		return nil
	}
	return s
}
