// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package models

import "time"

// File operations accepted by the presign endpoint.
const (
	OperationUpload   = "UPLOAD"
	OperationDownload = "DOWNLOAD"
)

// Presign expiry bounds in minutes.
const (
	DefaultPresignExpiry = 60
	MaxPresignExpiry     = 1440
)

// PresignRequest asks for a presigned object URL. Expiry is in minutes; an
// absent expiry means DefaultPresignExpiry, an explicit one must be in range.
type PresignRequest struct {
	FileName      string `json:"fileName" validate:"required,max=1024,object_name"`
	OperationType string `json:"operationType" validate:"required,oneof=UPLOAD DOWNLOAD"`
	Expiry        *int   `json:"expiry,omitempty" validate:"omitempty,min=1,max=1440"`
	ContentType   string `json:"contentType" validate:"omitempty,max=255"`
}

// Minutes returns a pointer for PresignRequest.Expiry.
func Minutes(n int) *int { return &n }

// ExpiryMinutes returns Expiry with the default applied.
func (r *PresignRequest) ExpiryMinutes() int {
	if r.Expiry == nil {
		return DefaultPresignExpiry
	}
	return *r.Expiry
}

// ExpiryTimeFrom formats the instant a URL issued at now stops working, in
// the local layout used by response envelopes.
func ExpiryTimeFrom(now time.Time, minutes int) string {
	return now.Add(time.Duration(minutes) * time.Minute).Format(EnvelopeTimeLayout)
}

// PresignResponse carries the URL a client uses directly against object storage.
type PresignResponse struct {
	PresignedURL  string `json:"presignedUrl"`
	FileName      string `json:"fileName"`
	OperationType string `json:"operationType"`
	ExpiryTime    string `json:"expiryTime"`
	BucketName    string `json:"bucketName"`
	ContentType   string `json:"contentType,omitempty"`
}

// StorageServerInfo describes the object store.
type StorageServerInfo struct {
	Endpoint   string `json:"endpoint"`
	BucketName string `json:"bucketName"`
	Region     string `json:"region"`
}
