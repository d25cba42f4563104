// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

package rabbitmq

import (
	"context"

	"github.com/homewatch/homewatch/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrConsume indicates that registering a consumer failed.
var ErrConsume = errors.New("failed to consume queue")

// Delivery is a single message pulled from a queue together with its
// acknowledgment handles. Under automatic acknowledgment Acknowledger is
// nil and the handles are no-ops.
type Delivery struct {
	Body         []byte
	RoutingKey   string
	Tag          uint64
	Acknowledger amqp.Acknowledger
}

// Ack acknowledges the delivery, marking it fully processed.
func (d Delivery) Ack() error {
	if d.Acknowledger == nil {
		return nil
	}
	return d.Acknowledger.Ack(d.Tag, false)
}

// Nack rejects the delivery. With requeue the broker redelivers it.
func (d Delivery) Nack(requeue bool) error {
	if d.Acknowledger == nil {
		return nil
	}
	return d.Acknowledger.Nack(d.Tag, false, requeue)
}

// Consume declares the queue and returns a lazy stream of deliveries from
// it. The stream closes when ctx is cancelled or the underlying channel
// drops; a message consumed without automatic acknowledgment and never
// acknowledged is redelivered by the broker after disconnect.
func (c *Client) Consume(ctx context.Context, queue string, autoAck bool) (<-chan Delivery, error) {
	if err := c.DeclareQueue(queue); err != nil {
		return nil, err
	}
	ch, err := c.channel()
	if err != nil {
		return nil, err
	}

	msgs, err := ch.Consume(queue, "", autoAck, false, false, false, nil)
	if err != nil {
		return nil, errors.Wrap(ErrConsume, err)
	}

	deliveries := make(chan Delivery)
	go func() {
		defer close(deliveries)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				d := Delivery{
					Body:       msg.Body,
					RoutingKey: msg.RoutingKey,
				}
				if !autoAck {
					d.Tag = msg.DeliveryTag
					d.Acknowledger = msg.Acknowledger
				}
				select {
				case <-ctx.Done():
					return
				case deliveries <- d:
				}
			}
		}
	}()

	return deliveries, nil
}
