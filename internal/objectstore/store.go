// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

// Package objectstore issues presigned URLs against the S3-compatible store
// that holds simulation files. Clients move file bytes directly; the gateway
// never proxies them.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tomtom215/twinpulse/internal/config"
	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/metrics"
	"github.com/tomtom215/twinpulse/internal/models"
)

var (
	ErrStorageDisabled  = errors.New("object storage is disabled")
	ErrInvalidOperation = errors.New("operationType must be UPLOAD or DOWNLOAD")
)

// client is the subset of *minio.Client the store needs.
type client interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PresignedPutObject(ctx context.Context, bucketName, objectName string, expires time.Duration) (*url.URL, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// Store presigns object URLs in one bucket.
type Store struct {
	client   client
	endpoint string
	bucket   string
	region   string
}

// New connects a minio client from cfg. No request is made until the first
// presign or health check.
func New(cfg *config.StorageConfig) (*Store, error) {
	if !cfg.Enabled {
		return nil, ErrStorageDisabled
	}
	c, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}
	return &Store{client: c, endpoint: cfg.Endpoint, bucket: cfg.BucketName, region: cfg.Region}, nil
}

// ensureBucket creates the bucket in the configured region when missing.
func (s *Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		// Another instance may have won the race.
		if exists, checkErr := s.client.BucketExists(ctx, s.bucket); checkErr == nil && exists {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	logging.Info().Str("bucket", s.bucket).Str("region", s.region).Msg("Created object storage bucket")
	return nil
}

// PresignPut returns a URL that accepts one PUT of object until expiry.
func (s *Store) PresignPut(ctx context.Context, object string, expiry time.Duration) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}
	u, err := s.client.PresignedPutObject(ctx, s.bucket, object, expiry)
	if err != nil {
		return "", fmt.Errorf("presign upload of %s: %w", object, err)
	}
	return u.String(), nil
}

// PresignGet returns a URL that serves object until expiry. A non-empty
// contentType is returned as the response Content-Type.
func (s *Store) PresignGet(ctx context.Context, object string, expiry time.Duration, contentType string) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}
	var params url.Values
	if contentType != "" {
		params = url.Values{"response-content-type": []string{contentType}}
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, object, expiry, params)
	if err != nil {
		return "", fmt.Errorf("presign download of %s: %w", object, err)
	}
	return u.String(), nil
}

// Presign serves a validated presign request.
func (s *Store) Presign(ctx context.Context, req *models.PresignRequest) (*models.PresignResponse, error) {
	minutes := req.ExpiryMinutes()
	expiry := time.Duration(minutes) * time.Minute
	issued := time.Now()

	var (
		u   string
		err error
	)
	switch req.OperationType {
	case models.OperationUpload:
		u, err = s.PresignPut(ctx, req.FileName, expiry)
	case models.OperationDownload:
		u, err = s.PresignGet(ctx, req.FileName, expiry, req.ContentType)
	default:
		err = ErrInvalidOperation
	}
	metrics.RecordPresign(req.OperationType, err)
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Str("file", req.FileName).
		Str("operation", req.OperationType).
		Int("expiry_minutes", minutes).
		Msg("Issued presigned URL")

	return &models.PresignResponse{
		PresignedURL:  u,
		FileName:      req.FileName,
		OperationType: req.OperationType,
		ExpiryTime:    models.ExpiryTimeFrom(issued, minutes),
		BucketName:    s.bucket,
		ContentType:   req.ContentType,
	}, nil
}

// ServerInfo describes the configured store.
func (s *Store) ServerInfo() models.StorageServerInfo {
	return models.StorageServerInfo{Endpoint: s.endpoint, BucketName: s.bucket, Region: s.region}
}

// Ping reports whether the store answers a bucket lookup.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}
