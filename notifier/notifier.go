// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

// Package notifier consumes persisted-reading notifications and fans them
// out to websocket subscribers.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/homewatch/homewatch/pkg/rabbitmq"
	"github.com/homewatch/homewatch/readings"
)

// EventName identifies reading events on the websocket wire.
const EventName = "ReceiveSensorReading"

// Broadcaster fans a payload out to connected subscribers and reports how
// many of them it reached.
type Broadcaster interface {
	Broadcast(payload []byte) int
}

// Event is the websocket frame wrapping a single reading.
type Event struct {
	Event string           `json:"event"`
	Data  readings.Reading `json:"data"`
}

// Service consumes the notification queue and broadcasts each reading.
type Service struct {
	hub    Broadcaster
	logger *slog.Logger
}

// New returns a notification fan-out service over hub.
func New(hub Broadcaster, logger *slog.Logger) *Service {
	return &Service{
		hub:    hub,
		logger: logger,
	}
}

// Consume drains the delivery stream until ctx is done or the stream
// closes. Every delivery is acknowledged, broadcast or not; fan-out has no
// redelivery semantics.
func (s *Service) Consume(ctx context.Context, deliveries <-chan rabbitmq.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			s.process(d)
		}
	}
}

func (s *Service) process(d rabbitmq.Delivery) {
	defer func() {
		if err := d.Ack(); err != nil {
			s.logger.Warn(fmt.Sprintf("Failed to acknowledge delivery: %s", err))
		}
	}()

	var r readings.Reading
	if err := json.Unmarshal(d.Body, &r); err != nil {
		s.logger.Error(fmt.Sprintf("Dropping unparseable notification: %s", err))
		return
	}

	payload, err := json.Marshal(Event{Event: EventName, Data: r})
	if err != nil {
		s.logger.Error(fmt.Sprintf("Failed to serialize event for reading %s: %s", r.ID, err))
		return
	}

	n := s.hub.Broadcast(payload)
	s.logger.Info(fmt.Sprintf("Broadcast reading %s to %d clients", r.ID, n))
}
