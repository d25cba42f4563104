// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

package api_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homewatch/homewatch/notifier"
	"github.com/homewatch/homewatch/notifier/api"
	"github.com/homewatch/homewatch/pkg/rabbitmq"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandshakeAndFanOut(t *testing.T) {
	hub := notifier.NewHub(testLogger())
	svc := notifier.New(hub, testLogger())

	ts := httptest.NewServer(api.MakeHandler(hub, testLogger(), "notifier", "1"))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.Nil(t, err)
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for hub.Len() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 1 client, got %d", hub.Len())
		}
		time.Sleep(10 * time.Millisecond)
	}

	body := `{"id":"123e4567-e89b-12d3-a456-000000000001","type":"energy","name":"Office","energy":2.5,"capturedAt":"2026-08-01T12:00:00Z"}`
	deliveries := make(chan rabbitmq.Delivery, 1)
	deliveries <- rabbitmq.Delivery{Body: []byte(body)}
	close(deliveries)
	require.Nil(t, svc.Consume(context.Background(), deliveries))

	require.Nil(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := conn.ReadMessage()
	require.Nil(t, err)

	var ev notifier.Event
	require.Nil(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, notifier.EventName, ev.Event)
	assert.Equal(t, "123e4567-e89b-12d3-a456-000000000001", ev.Data.ID)
}

func TestHandshakeRejectsPlainGet(t *testing.T) {
	hub := notifier.NewHub(testLogger())
	ts := httptest.NewServer(api.MakeHandler(hub, testLogger(), "notifier", "1"))
	defer ts.Close()

	res, err := http.Get(ts.URL + "/ws")
	require.Nil(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, 0, hub.Len())
}

func TestNotifierHealth(t *testing.T) {
	hub := notifier.NewHub(testLogger())
	ts := httptest.NewServer(api.MakeHandler(hub, testLogger(), "notifier", "1"))
	defer ts.Close()

	res, err := http.Get(ts.URL + "/health")
	require.Nil(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)

	var health struct {
		Status string `json:"status"`
	}
	require.Nil(t, json.NewDecoder(res.Body).Decode(&health))
	assert.Equal(t, "pass", health.Status)
}
