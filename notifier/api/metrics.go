// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

//go:build !test

package api

import (
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/homewatch/homewatch/notifier"
)

var _ notifier.Broadcaster = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	hub     notifier.Broadcaster
}

// MetricsMiddleware returns a broadcaster with its methods wrapped to
// expose metrics.
func MetricsMiddleware(hub notifier.Broadcaster, counter metrics.Counter, latency metrics.Histogram) notifier.Broadcaster {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		hub:     hub,
	}
}

func (mm *metricsMiddleware) Broadcast(payload []byte) int {
	defer func(begin time.Time) {
		mm.counter.With("method", "broadcast").Add(1)
		mm.latency.With("method", "broadcast").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.hub.Broadcast(payload)
}
