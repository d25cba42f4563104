// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

// Package api exposes the websocket handshake endpoint for reading
// notifications.
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/homewatch/homewatch"
	"github.com/homewatch/homewatch/notifier"
)

// Queue size per subscriber. A client this far behind is dropped.
const clientQueueSize = 32

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// MakeHandler returns an http handler with the handshake endpoint.
func MakeHandler(hub *notifier.Hub, logger *slog.Logger, svcName, instanceID string) http.Handler {
	mux := chi.NewRouter()
	mux.Get("/ws", handshake(hub, logger))
	mux.Get("/health", homewatch.Health(svcName, instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func handshake(hub *notifier.Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn(fmt.Sprintf("Failed to upgrade connection to websocket: %s", err))
			return
		}

		client := notifier.NewClient(conn, clientQueueSize)
		hub.Register(client)
		client.Start(hub)
	}
}
