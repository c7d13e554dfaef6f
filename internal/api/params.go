// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Paging bounds shared by the list endpoints.
const (
	defaultPageSize = 10
	maxPageSize     = 1000
)

func pathInt64(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", errInvalidParam, name)
	}
	return v, nil
}

// queryInt returns def when key is absent and an error when it is present
// but outside [lo, hi].
func queryInt(r *http.Request, key string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("%w: %s must be an integer between %d and %d", errInvalidParam, key, lo, hi)
	}
	return v, nil
}

func queryInt64Ptr(r *http.Request, key string) (*int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", errInvalidParam, key)
	}
	return &v, nil
}

func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

// pageParams reads page (from 0) and size.
func pageParams(r *http.Request) (page, size int, err error) {
	if page, err = queryInt(r, "page", 0, 0, 1<<20); err != nil {
		return 0, 0, err
	}
	if size, err = queryInt(r, "size", defaultPageSize, 1, maxPageSize); err != nil {
		return 0, 0, err
	}
	return page, size, nil
}
