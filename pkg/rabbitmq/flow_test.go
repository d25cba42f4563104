// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

package rabbitmq

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func waitForFlow(t *testing.T, c *Client, paused bool) {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for c.flowPaused.Load() != paused {
		if time.Now().After(deadline) {
			t.Fatalf("expected flowPaused=%v", paused)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWatchFlow(t *testing.T) {
	c := &Client{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	flow := make(chan bool)
	go c.watchFlow(flow)

	assert.False(t, c.flowPaused.Load())

	flow <- true
	waitForFlow(t, c, true)

	flow <- false
	waitForFlow(t, c, false)

	close(flow)
}
