// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

package rabbitmq

import (
	"context"
	"fmt"

	"github.com/homewatch/homewatch/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	contentType = "application/json"
	appID       = "homewatch"
)

var (
	// ErrPublish indicates that publishing a message failed.
	ErrPublish = errors.New("failed to publish message")

	// ErrNotConfirmed indicates that the broker rejected a published message.
	ErrNotConfirmed = errors.New("message not confirmed by broker")
)

// Publish sends payload to the named durable queue on the default exchange
// with the persistent delivery flag set, and blocks until the broker
// confirms receipt. A publish submitted while the broker has paused channel
// flow still proceeds; the backpressure condition is logged as an early
// warning, not treated as failure.
func (c *Client) Publish(ctx context.Context, queue string, payload []byte) error {
	if queue == "" {
		return ErrEmptyQueue
	}
	ch, err := c.channel()
	if err != nil {
		return err
	}

	if c.flowPaused.Load() {
		c.logger.Warn(fmt.Sprintf("publishing to %s under channel backpressure", queue))
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(
		ctx,
		"",
		queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  contentType,
			DeliveryMode: amqp.Persistent,
			AppId:        appID,
			Body:         payload,
		})
	if err != nil {
		return errors.Wrap(ErrPublish, err)
	}

	select {
	case <-ctx.Done():
		return errors.Wrap(ErrPublish, ctx.Err())
	case <-confirm.Done():
		if !confirm.Acked() {
			return ErrNotConfirmed
		}
	}

	return nil
}
