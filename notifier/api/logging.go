// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

//go:build !test

package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/homewatch/homewatch/notifier"
)

var _ notifier.Broadcaster = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	hub    notifier.Broadcaster
}

// LoggingMiddleware adds logging facilities to the broadcaster.
func LoggingMiddleware(hub notifier.Broadcaster, logger *slog.Logger) notifier.Broadcaster {
	return &loggingMiddleware{
		logger: logger,
		hub:    hub,
	}
}

func (lm *loggingMiddleware) Broadcast(payload []byte) (n int) {
	defer func(begin time.Time) {
		lm.logger.Info(fmt.Sprintf("Method broadcast to %d clients took %s to complete without errors.", n, time.Since(begin)))
	}(time.Now())

	return lm.hub.Broadcast(payload)
}
