// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

// Package writer contains the ingest relay: it consumes raw reading
// batches from the data queue, materializes and persists them, and
// republishes every persisted reading to the notification queue.
package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/homewatch/homewatch"
	"github.com/homewatch/homewatch/pkg/errors"
	"github.com/homewatch/homewatch/pkg/rabbitmq"
	"github.com/homewatch/homewatch/readings"
)

// ErrSaveReadings indicates that persisting a batch failed.
var ErrSaveReadings = errors.New("failed to save readings")

// Repository persists materialized readings and serves the read side of
// the storage boundary.
type Repository interface {
	// Save persists the batch in a single write.
	Save(ctx context.Context, rs []readings.Reading) error

	// ReadAll retrieves a page of readings matching the metadata filters.
	ReadAll(ctx context.Context, pm PageMetadata) (Page, error)
}

// PageMetadata filters and paginates repository reads.
type PageMetadata struct {
	Offset   uint64
	Limit    uint64
	Kind     readings.SensorKind
	Location readings.Location
	From     time.Time
	To       time.Time
}

// Page is one page of persisted readings.
type Page struct {
	PageMetadata
	Total    uint64
	Readings []readings.Reading
}

// Publisher is the notification hop used by the relay.
type Publisher interface {
	Publish(ctx context.Context, queue string, payload []byte) error
}

// Service is the ingest relay. Deliveries are acknowledged only after the
// persistence write succeeds; redelivered envelopes materialize with fresh
// identifiers, so a failed write followed by redelivery produces duplicate
// rows.
type Service struct {
	repo        Repository
	pub         Publisher
	notifyQueue string
	idp         homewatch.IDProvider
	logger      *slog.Logger
}

// New returns an ingest relay persisting through repo and notifying
// through pub on the given queue.
func New(repo Repository, pub Publisher, notifyQueue string, idp homewatch.IDProvider, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		pub:         pub,
		notifyQueue: notifyQueue,
		idp:         idp,
		logger:      logger,
	}
}

// Consume drains the delivery stream until ctx is done or the stream
// closes. Malformed envelopes are dropped without halting the stream.
func (s *Service) Consume(ctx context.Context, deliveries <-chan rabbitmq.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			s.process(ctx, d)
		}
	}
}

func (s *Service) process(ctx context.Context, d rabbitmq.Delivery) {
	msgs, err := readings.ParseBatch(d.Body)
	if err != nil {
		s.logger.Error(fmt.Sprintf("dropping unparseable batch: %s", err))
		s.ack(d)
		return
	}
	if len(msgs) == 0 {
		s.ack(d)
		return
	}

	// One timestamp per delivery: every reading in the batch shares it.
	now := time.Now().UTC()
	rs, err := readings.Materialize(msgs, s.idp, now)
	if err != nil {
		s.logger.Error(fmt.Sprintf("dropping invalid batch: %s", err))
		s.ack(d)
		return
	}

	// Notifications go out per reading and before the persistence commit,
	// so fan-out can observe a reading fractionally before it is durable.
	for _, r := range rs {
		payload, err := json.Marshal(r)
		if err != nil {
			s.logger.Error(fmt.Sprintf("dropping unserializable reading %s: %s", r.ID, err))
			s.ack(d)
			return
		}
		if err := s.pub.Publish(ctx, s.notifyQueue, payload); err != nil {
			s.logger.Error(fmt.Sprintf("failed to publish notification for reading %s: %s", r.ID, err))
			s.nack(d)
			return
		}
	}

	if err := s.repo.Save(ctx, rs); err != nil {
		s.logger.Error(fmt.Sprintf("failed to persist batch of %d readings: %s", len(rs), err))
		s.nack(d)
		return
	}

	s.logger.Info(fmt.Sprintf("persisted %d readings", len(rs)))
	s.ack(d)
}

func (s *Service) ack(d rabbitmq.Delivery) {
	if err := d.Ack(); err != nil {
		s.logger.Warn(fmt.Sprintf("failed to acknowledge delivery: %s", err))
	}
}

func (s *Service) nack(d rabbitmq.Delivery) {
	if err := d.Nack(true); err != nil {
		s.logger.Warn(fmt.Sprintf("failed to reject delivery: %s", err))
	}
}
