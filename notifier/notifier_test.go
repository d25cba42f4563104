// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

package notifier_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homewatch/homewatch/notifier"
	"github.com/homewatch/homewatch/pkg/rabbitmq"
	"github.com/homewatch/homewatch/readings"
)

type mockBroadcaster struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (m *mockBroadcaster) Broadcast(payload []byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
	return 1
}

func (m *mockBroadcaster) broadcasts() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payloads
}

type mockAck struct {
	mu    sync.Mutex
	acked bool
}

func (m *mockAck) Ack(tag uint64, multiple bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = true
	return nil
}

func (m *mockAck) Nack(tag uint64, multiple bool, requeue bool) error { return nil }

func (m *mockAck) Reject(tag uint64, requeue bool) error { return nil }

func deliver(t *testing.T, svc *notifier.Service, body string, ack *mockAck) {
	t.Helper()

	deliveries := make(chan rabbitmq.Delivery, 1)
	deliveries <- rabbitmq.Delivery{Body: []byte(body), Tag: 1, Acknowledger: ack}
	close(deliveries)

	err := svc.Consume(context.Background(), deliveries)
	require.Nil(t, err)
}

func TestConsumeBroadcastsReading(t *testing.T) {
	hub := &mockBroadcaster{}
	svc := notifier.New(hub, slog.New(slog.NewTextHandler(io.Discard, nil)))

	body := `{"id":"123e4567-e89b-12d3-a456-000000000001","type":"motion","name":"Garage","motionDetected":true,"capturedAt":"2026-08-01T12:00:00Z"}`
	ack := &mockAck{}
	deliver(t, svc, body, ack)

	broadcasts := hub.broadcasts()
	require.Len(t, broadcasts, 1)

	var ev notifier.Event
	require.Nil(t, json.Unmarshal(broadcasts[0], &ev))
	assert.Equal(t, notifier.EventName, ev.Event)
	assert.Equal(t, "123e4567-e89b-12d3-a456-000000000001", ev.Data.ID)
	assert.Equal(t, readings.Motion, ev.Data.Kind)
	require.NotNil(t, ev.Data.MotionDetected)
	assert.True(t, *ev.Data.MotionDetected)

	assert.True(t, ack.acked)
}

func TestConsumeDropsMalformed(t *testing.T) {
	hub := &mockBroadcaster{}
	svc := notifier.New(hub, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ack := &mockAck{}
	deliver(t, svc, `{not json`, ack)

	assert.Empty(t, hub.broadcasts())
	assert.True(t, ack.acked, "expected unparseable notification to be acknowledged")
}

func TestConsumeStopsOnCancel(t *testing.T) {
	svc := notifier.New(&mockBroadcaster{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	deliveries := make(chan rabbitmq.Delivery)

	done := make(chan error, 1)
	go func() {
		done <- svc.Consume(ctx, deliveries)
	}()

	cancel()
	select {
	case err := <-done:
		assert.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("consume did not stop on context cancellation")
	}
}
