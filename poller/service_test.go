// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

package poller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/homewatch/homewatch/logger"
	"github.com/homewatch/homewatch/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dataQueue = "sensor-data"

type mockPublisher struct {
	mu       sync.Mutex
	err      error
	payloads [][]byte
	queues   []string
}

func (m *mockPublisher) Publish(_ context.Context, queue string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.queues = append(m.queues, queue)
	m.payloads = append(m.payloads, payload)
	return nil
}

func (m *mockPublisher) published() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte{}, m.payloads...)
}

func newTestService(t *testing.T, url string, pub Publisher) *Service {
	t.Helper()
	testLog, err := logger.New(io.Discard, "debug")
	require.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))

	return New(Config{
		URL:           url,
		APIKey:        "supersecret",
		PollInterval:  5 * time.Second,
		HTTPTimeout:   time.Second,
		MaxRetryDelay: 30 * time.Second,
		RetryGrace:    500 * time.Millisecond,
	}, pub, dataQueue, testLog)
}

func TestPollOncePublishesBatch(t *testing.T) {
	body := `[{"type":"air_quality","name":"Living Room","payload":{"co2":450,"pm25":12,"humidity":55}},{"type":"motion","name":"Kitchen","payload":{"motionDetected":true}},{"type":"energy","name":"Bedroom","payload":{"energy":1234.56}}]`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/meters", r.URL.Path)
		assert.Equal(t, "supersecret", r.Header.Get("X-Api-Key"))
		fmt.Fprint(w, body)
	}))
	defer ts.Close()

	pub := &mockPublisher{}
	svc := newTestService(t, ts.URL, pub)

	delay, err := svc.pollOnce(context.Background())
	require.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))
	assert.Equal(t, svc.cfg.PollInterval, delay)

	published := pub.published()
	require.Len(t, published, 1, "a non-empty batch is published as a single envelope")
	assert.Equal(t, body, string(published[0]), "the raw array is forwarded untouched")
	assert.Equal(t, dataQueue, pub.queues[0])
}

func TestPollOnceEmptyBatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer ts.Close()

	pub := &mockPublisher{}
	svc := newTestService(t, ts.URL, pub)

	delay, err := svc.pollOnce(context.Background())
	require.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))
	assert.Equal(t, svc.cfg.PollInterval, delay, "empty batches reschedule at the nominal interval")
	assert.Empty(t, pub.published(), "empty batches publish nothing")
}

func TestPollOnceErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"error":"meter offline"}`)
	}))
	defer ts.Close()

	pub := &mockPublisher{}
	svc := newTestService(t, ts.URL, pub)

	_, err := svc.pollOnce(context.Background())
	assert.True(t, errors.Contains(err, ErrUpstreamBody), fmt.Sprintf("expected %s got %s\n", ErrUpstreamBody, err))
	assert.Empty(t, pub.published())
}

func TestPollOnceMalformedPayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `"not a batch"`)
	}))
	defer ts.Close()

	svc := newTestService(t, ts.URL, &mockPublisher{})

	_, err := svc.pollOnce(context.Background())
	assert.True(t, errors.Contains(err, ErrMalformedPayload), fmt.Sprintf("expected %s got %s\n", ErrMalformedPayload, err))
}

func TestPollOnceTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	svc := newTestService(t, ts.URL, &mockPublisher{})

	_, err := svc.pollOnce(context.Background())
	require.NotNil(t, err)
	_, ok := retryAfter(err)
	assert.False(t, ok, "no Retry-After header means no hint")
}

func TestPollOnceRetryAfterHint(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	svc := newTestService(t, ts.URL, &mockPublisher{})

	_, err := svc.pollOnce(context.Background())
	require.NotNil(t, err)

	hint, ok := retryAfter(err)
	require.True(t, ok, "503 with Retry-After carries a hint")
	assert.Equal(t, 2*time.Second, hint)
	assert.Equal(t, 2*time.Second+svc.cfg.RetryGrace, svc.nextDelay(err, 1))
}

func TestPollOncePublishFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"type":"motion","name":"Kitchen","payload":{"motionDetected":true}}]`)
	}))
	defer ts.Close()

	pubErr := errors.New("broker unavailable")
	svc := newTestService(t, ts.URL, &mockPublisher{err: pubErr})

	_, err := svc.pollOnce(context.Background())
	assert.True(t, errors.Contains(err, pubErr), fmt.Sprintf("expected %s got %s\n", pubErr, err))
}

func TestPollOnceSingleFlight(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		fmt.Fprint(w, `[]`)
	}))
	defer ts.Close()

	svc := newTestService(t, ts.URL, &mockPublisher{})
	svc.inFlight.Store(true)

	delay, err := svc.pollOnce(context.Background())
	require.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))
	assert.Equal(t, svc.cfg.PollInterval, delay, "a rejected tick reschedules at the nominal interval")
	assert.Zero(t, hits, "a rejected tick must not reach the upstream source")
}

func TestRunStopsOnCancel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer ts.Close()

	svc := newTestService(t, ts.URL, &mockPublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Run(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		assert.Equal(t, context.Canceled, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for Run to stop")
	}
}
