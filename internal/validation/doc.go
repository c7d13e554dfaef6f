// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

// Package validation wraps go-playground/validator v10.
//
// A single validator is shared by the process. Besides the built-in rules it
// knows object_name, used for object storage keys:
//
//	type PresignRequest struct {
//	    FileName string `json:"fileName" validate:"required,max=1024,object_name"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // 400 with apiErr.Message and apiErr.Details
//	}
//
// Errors name fields by their json tag so the messages match the wire
// names clients send.
package validation
