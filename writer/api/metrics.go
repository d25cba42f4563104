// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

//go:build !test

package api

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/homewatch/homewatch/readings"
	"github.com/homewatch/homewatch/writer"
)

var _ writer.Repository = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	repo    writer.Repository
}

// MetricsMiddleware returns a readings repository with its methods wrapped
// to expose metrics.
func MetricsMiddleware(repo writer.Repository, counter metrics.Counter, latency metrics.Histogram) writer.Repository {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		repo:    repo,
	}
}

func (mm *metricsMiddleware) Save(ctx context.Context, rs []readings.Reading) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "save").Add(1)
		mm.latency.With("method", "save").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.repo.Save(ctx, rs)
}

func (mm *metricsMiddleware) ReadAll(ctx context.Context, pm writer.PageMetadata) (writer.Page, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "read_all").Add(1)
		mm.latency.With("method", "read_all").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.repo.ReadAll(ctx, pm)
}
