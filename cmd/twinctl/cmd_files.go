// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/twinpulse/internal/models"
)

const (
	presignPath    = "/api/simulations/files/presigned-url"
	serverInfoPath = "/api/simulations/files/server-info"
)

func newFilesCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Presigned object storage URLs",
	}
	cmd.AddCommand(
		newPresignCmd(opts),
		newFilesInfoCmd(opts),
		newFilesFlowCmd(opts),
		newFilesValidateCmd(opts),
	)
	return cmd
}

func presign(ctx context.Context, c *Client, req *models.PresignRequest) (*models.PresignResponse, error) {
	var resp models.PresignResponse
	if _, err := c.Do(ctx, http.MethodPost, presignPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func newPresignCmd(opts *globalOptions) *cobra.Command {
	var (
		op          string
		name        string
		expiry      int
		contentType string
	)
	cmd := &cobra.Command{
		Use:   "presign",
		Short: "Request a presigned upload or download URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			req := &models.PresignRequest{
				FileName:      name,
				OperationType: strings.ToUpper(op),
				ContentType:   contentType,
			}
			if cmd.Flags().Changed("expiry") {
				req.Expiry = models.Minutes(expiry)
			}
			resp, err := presign(cmd.Context(), c, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&op, "op", "upload", "upload or download")
	cmd.Flags().StringVar(&name, "name", "", "object name")
	cmd.Flags().IntVar(&expiry, "expiry", 0, "expiry in minutes (server default when unset)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "content type")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newFilesInfoCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the object storage endpoint and bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			var info models.StorageServerInfo
			if _, err := c.Do(cmd.Context(), http.MethodGet, serverInfoPath, nil, &info); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), info)
		},
	}
}

func newFilesFlowCmd(opts *globalOptions) *cobra.Command {
	var (
		file        string
		name        string
		contentType string
	)
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Upload a file through a presigned URL and download it back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			if name == "" {
				name = "twinctl/" + filepath.Base(file)
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			return filesFlow(cmd.Context(), c, cmd.OutOrStdout(), name, contentType, data)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "local file to upload")
	cmd.Flags().StringVar(&name, "name", "", "object name (default twinctl/<file name>)")
	cmd.Flags().StringVar(&contentType, "content-type", "application/octet-stream", "content type")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func filesFlow(ctx context.Context, c *Client, out io.Writer, name, contentType string, data []byte) error {
	up, err := presign(ctx, c, &models.PresignRequest{FileName: name, OperationType: models.OperationUpload, ContentType: contentType})
	if err != nil {
		return fmt.Errorf("presign upload: %w", err)
	}
	if _, err := c.Transfer(ctx, http.MethodPut, up.PresignedURL, contentType, data); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	fmt.Fprintf(out, "uploaded %d bytes to %s/%s\n", len(data), up.BucketName, up.FileName)

	down, err := presign(ctx, c, &models.PresignRequest{FileName: name, OperationType: models.OperationDownload})
	if err != nil {
		return fmt.Errorf("presign download: %w", err)
	}
	got, err := c.Transfer(ctx, http.MethodGet, down.PresignedURL, "", nil)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if !bytes.Equal(got, data) {
		return fmt.Errorf("downloaded %d bytes differ from the %d uploaded", len(got), len(data))
	}
	fmt.Fprintf(out, "downloaded %d bytes, content matches\n", len(got))
	return nil
}

// invalidPresigns are requests the server must reject with 400.
var invalidPresigns = []struct {
	name string
	req  models.PresignRequest
}{
	{"missing fileName", models.PresignRequest{OperationType: models.OperationUpload}},
	{"missing operationType", models.PresignRequest{FileName: "twinctl/check.txt"}},
	{"unknown operationType", models.PresignRequest{FileName: "twinctl/check.txt", OperationType: "DELETE"}},
	{"zero expiry", models.PresignRequest{FileName: "twinctl/check.txt", OperationType: models.OperationUpload, Expiry: models.Minutes(0)}},
	{"negative expiry", models.PresignRequest{FileName: "twinctl/check.txt", OperationType: models.OperationUpload, Expiry: models.Minutes(-1)}},
	{"expiry too long", models.PresignRequest{FileName: "twinctl/check.txt", OperationType: models.OperationUpload, Expiry: models.Minutes(1441)}},
}

func newFilesValidateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that invalid presign requests are rejected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			failed := 0
			for _, tc := range invalidPresigns {
				_, err := presign(cmd.Context(), c, &tc.req)
				switch {
				case IsStatus(err, http.StatusBadRequest):
					fmt.Fprintf(out, "ok    %s: %v\n", tc.name, err)
				case err == nil:
					failed++
					fmt.Fprintf(out, "FAIL  %s: accepted\n", tc.name)
				default:
					failed++
					fmt.Fprintf(out, "FAIL  %s: %v\n", tc.name, err)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d invalid request(s) not rejected", failed)
			}
			return nil
		},
	}
}
