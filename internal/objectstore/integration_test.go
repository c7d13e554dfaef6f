// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

//go:build integration

package objectstore

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/tomtom215/twinpulse/internal/config"
	"github.com/tomtom215/twinpulse/internal/models"
	"github.com/tomtom215/twinpulse/internal/testinfra"
)

func TestIntegration_PresignRoundTrip(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mc, err := testinfra.NewMinIOContainer(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer testinfra.CleanupContainer(t, ctx, mc)

	store, err := New(&config.StorageConfig{
		Enabled:    true,
		Endpoint:   mc.Endpoint,
		AccessKey:  mc.AccessKey,
		SecretKey:  mc.SecretKey,
		BucketName: "simulations",
		Region:     "us-east-1",
	})
	if err != nil {
		t.Fatal(err)
	}

	up, err := store.Presign(ctx, &models.PresignRequest{FileName: "runs/42/result.bin", OperationType: models.OperationUpload})
	if err != nil {
		t.Fatal(err)
	}
	body := []byte("heat flux trace")
	put, err := http.NewRequestWithContext(ctx, http.MethodPut, up.PresignedURL, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(put)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}

	down, err := store.Presign(ctx, &models.PresignRequest{FileName: "runs/42/result.bin", OperationType: models.OperationDownload})
	if err != nil {
		t.Fatal(err)
	}
	get, err := http.NewRequestWithContext(ctx, http.MethodGet, down.PresignedURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err = http.DefaultClient.Do(get)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	got, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("downloaded %q, want %q", got, body)
	}
}
