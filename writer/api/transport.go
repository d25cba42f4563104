// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

// Package api exposes the persisted readings over HTTP and decorates the
// repository with observability middlewares.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/homewatch/homewatch"
	"github.com/homewatch/homewatch/pkg/apiutil"
	"github.com/homewatch/homewatch/pkg/errors"
	"github.com/homewatch/homewatch/readings"
	"github.com/homewatch/homewatch/writer"
)

const (
	contentType = "application/json"
	offsetKey   = "offset"
	limitKey    = "limit"
	typeKey     = "type"
	nameKey     = "name"
	fromKey     = "from"
	toKey       = "to"
	defLimit    = 10
	defOffset   = 0
)

// MakeHandler returns a HTTP handler for API endpoints.
func MakeHandler(repo writer.Repository, logger *slog.Logger, svcName, instanceID string) http.Handler {
	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, encodeError)),
	}

	mux := chi.NewRouter()
	mux.Get("/readings", kithttp.NewServer(
		listReadingsEndpoint(repo),
		decodeList,
		encodeResponse,
		opts...,
	).ServeHTTP)

	mux.Get("/health", homewatch.Health(svcName, instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeList(_ context.Context, r *http.Request) (interface{}, error) {
	offset, err := apiutil.ReadUintQuery(r, offsetKey, defOffset)
	if err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, err)
	}

	limit, err := apiutil.ReadUintQuery(r, limitKey, defLimit)
	if err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, err)
	}

	kindStr, err := apiutil.ReadStringQuery(r, typeKey, "")
	if err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, err)
	}
	var kind readings.SensorKind
	if kindStr != "" {
		if kind, err = readings.ParseSensorKind(kindStr); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}
	}

	locStr, err := apiutil.ReadStringQuery(r, nameKey, "")
	if err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, err)
	}
	var loc readings.Location
	if locStr != "" {
		if loc, err = readings.ParseLocation(locStr); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}
	}

	from, err := apiutil.ReadTimeQuery(r, fromKey, time.Time{})
	if err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, err)
	}

	to, err := apiutil.ReadTimeQuery(r, toKey, time.Time{})
	if err != nil {
		return nil, errors.Wrap(apiutil.ErrValidation, err)
	}

	req := listReadingsReq{
		pageMeta: writer.PageMetadata{
			Offset:   offset,
			Limit:    limit,
			Kind:     kind,
			Location: loc,
			From:     from,
			To:       to,
		},
	}

	return req, nil
}

func encodeResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	w.Header().Set("Content-Type", contentType)

	if ar, ok := response.(homewatch.Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}

		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	switch {
	case errors.Contains(err, apiutil.ErrValidation),
		errors.Contains(err, apiutil.ErrInvalidQueryParams),
		errors.Contains(err, apiutil.ErrLimitSize),
		errors.Contains(err, apiutil.ErrInvalidTimeFormat),
		errors.Contains(err, errors.ErrMalformedEntity):
		w.WriteHeader(http.StatusBadRequest)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}

	if errorVal, ok := err.(errors.Error); ok {
		w.Header().Set("Content-Type", contentType)
		if err := json.NewEncoder(w).Encode(errorVal); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
}
