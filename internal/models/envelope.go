// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package models

import "time"

// EnvelopeTimeLayout is the local wall-clock layout used in Envelope.Timestamp.
const EnvelopeTimeLayout = "2006-01-02T15:04:05.000"

// Response codes carried in Envelope.Code.
const (
	CodeSuccess = 200
	CodeFailure = 500
)

// Envelope wraps every pushed WebSocket payload and most REST responses.
//
//	{"code":200,"message":"success","timestamp":"2026-03-01T10:00:00.000","data":{...}}
type Envelope[T any] struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Data      T      `json:"data"`
}

func now() string {
	return time.Now().Format(EnvelopeTimeLayout)
}

// Success wraps data with code 200 and message "success".
func Success[T any](data T) Envelope[T] {
	return Envelope[T]{Code: CodeSuccess, Message: "success", Timestamp: now(), Data: data}
}

// SuccessMessage is Success with a custom message.
func SuccessMessage[T any](message string, data T) Envelope[T] {
	return Envelope[T]{Code: CodeSuccess, Message: message, Timestamp: now(), Data: data}
}

// Failure returns a code 500 envelope with a null data field.
func Failure(message string) Envelope[any] {
	return Envelope[any]{Code: CodeFailure, Message: message, Timestamp: now()}
}

// FailureCode returns an error envelope with an explicit code, used by the
// REST layer for 4xx answers.
func FailureCode(code int, message string) Envelope[any] {
	return Envelope[any]{Code: code, Message: message, Timestamp: now()}
}

// FailureWithData is FailureCode carrying details, such as the fields that
// failed validation.
func FailureWithData(code int, message string, data any) Envelope[any] {
	return Envelope[any]{Code: code, Message: message, Timestamp: now(), Data: data}
}
