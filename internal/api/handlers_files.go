// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package api

import (
	"net/http"

	"github.com/tomtom215/twinpulse/internal/models"
)

// PresignedURL issues a time-limited upload or download URL
//
// @Summary Presigned object URL
// @Tags Files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.PresignRequest true "Object and operation"
// @Success 200 {object} models.Envelope[models.PresignResponse]
// @Failure 400 {object} models.Envelope[any]
// @Failure 503 {object} models.Envelope[any]
// @Router /simulations/files/presigned-url [post]
func (h *Handler) PresignedURL(w http.ResponseWriter, r *http.Request) {
	if h.Files == nil {
		respondServiceError(w, r, ErrServiceUnavailable, "")
		return
	}
	var req models.PresignRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	resp, err := h.Files.Presign(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err, "failed to generate presigned URL")
		return
	}
	respondMessage(w, "预签名URL生成成功", resp)
}

// StorageInfo describes the object storage endpoint and bucket.
func (h *Handler) StorageInfo(w http.ResponseWriter, r *http.Request) {
	if h.Files == nil {
		respondServiceError(w, r, ErrServiceUnavailable, "")
		return
	}
	respondMessage(w, "获取服务器信息成功", h.Files.ServerInfo())
}
