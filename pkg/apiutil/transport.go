// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

// Package apiutil contains shared HTTP transport helpers.
package apiutil

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	kithttp "github.com/go-kit/kit/transport/http"

	"github.com/homewatch/homewatch/pkg/errors"
)

// LoggingErrorEncoder is a go-kit error encoder logging decorator.
func LoggingErrorEncoder(logger *slog.Logger, enc kithttp.ErrorEncoder) kithttp.ErrorEncoder {
	return func(ctx context.Context, err error, w http.ResponseWriter) {
		if errors.Contains(err, ErrValidation) {
			logger.Error(err.Error())
		}
		enc(ctx, err, w)
	}
}

// ReadStringQuery reads the value of string http query parameters for a given key.
func ReadStringQuery(r *http.Request, key, def string) (string, error) {
	vals := r.URL.Query()[key]
	if len(vals) > 1 {
		return "", ErrInvalidQueryParams
	}

	if len(vals) == 0 {
		return def, nil
	}

	return vals[0], nil
}

// ReadUintQuery reads the value of uint http query parameters for a given key.
func ReadUintQuery(r *http.Request, key string, def uint64) (uint64, error) {
	vals := r.URL.Query()[key]
	if len(vals) > 1 {
		return 0, ErrInvalidQueryParams
	}

	if len(vals) == 0 {
		return def, nil
	}

	v, err := strconv.ParseUint(vals[0], 10, 64)
	if err != nil {
		return 0, errors.Wrap(ErrInvalidQueryParams, err)
	}

	return v, nil
}

// ReadTimeQuery reads an RFC 3339 time http query parameter for a given key.
func ReadTimeQuery(r *http.Request, key string, def time.Time) (time.Time, error) {
	vals := r.URL.Query()[key]
	if len(vals) > 1 {
		return time.Time{}, ErrInvalidQueryParams
	}

	if len(vals) == 0 {
		return def, nil
	}

	t, err := time.Parse(time.RFC3339, vals[0])
	if err != nil {
		return time.Time{}, errors.Wrap(ErrInvalidTimeFormat, err)
	}

	return t, nil
}
