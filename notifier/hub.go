// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

package notifier

import (
	"fmt"
	"log/slog"
	"sync"
)

// Hub tracks connected websocket subscribers and fans events out to them.
// Delivery is fire and forget: a full client queue drops the client, never
// blocks the broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub returns an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the fan-out set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// Unregister removes a client and closes its connection. Removing a client
// that is already gone is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		if err := c.close(); err != nil {
			h.logger.Warn(fmt.Sprintf("Failed to close client connection: %s", err))
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues payload for every connected client and returns the
// number of clients it was queued for. Clients with a full queue are
// dropped.
func (h *Hub) Broadcast(payload []byte) int {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range clients {
		if c.trySend(payload) {
			delivered++
			continue
		}
		h.logger.Warn("Dropping slow websocket client")
		h.Unregister(c)
	}

	return delivered
}
