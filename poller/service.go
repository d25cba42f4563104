// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

// Package poller contains the adaptive polling worker that feeds the
// homewatch pipeline: it repeatedly fetches reading batches from the
// metering API and relays non-empty batches to the data queue, backing off
// on upstream failures.
package poller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/homewatch/homewatch/pkg/errors"
)

var (
	// ErrTransport indicates a network, timeout or HTTP-status failure.
	ErrTransport = errors.New("metering API request failed")

	// ErrUpstreamBody indicates a well-formed error payload instead of data.
	ErrUpstreamBody = errors.New("metering API returned error body")

	// ErrMalformedPayload indicates a response that is neither an array nor
	// an error object.
	ErrMalformedPayload = errors.New("unexpected metering API payload")
)

// Config holds poller settings, loaded from the environment with the
// HW_METERS_ prefix.
type Config struct {
	URL           string        `env:"URL"              envDefault:"http://localhost:8080"`
	APIKey        string        `env:"API_KEY"          envDefault:"supersecret"`
	PollInterval  time.Duration `env:"POLL_INTERVAL"    envDefault:"5s"`
	HTTPTimeout   time.Duration `env:"HTTP_TIMEOUT"     envDefault:"3s"`
	MaxRetryDelay time.Duration `env:"RETRY_MAX_DELAY"  envDefault:"30s"`
	RetryGrace    time.Duration `env:"RETRY_GRACE"      envDefault:"500ms"`
}

// Publisher is the broker hop used by the poller.
type Publisher interface {
	// Publish sends payload to the named queue and blocks until the broker
	// confirms receipt.
	Publish(ctx context.Context, queue string, payload []byte) error
}

// Service is the polling worker. A single logical request is in flight at
// any time; overlapping ticks are rejected by a compare-and-swap guard and
// rescheduled at the nominal interval.
type Service struct {
	cfg    Config
	client *http.Client
	pub    Publisher
	queue  string
	logger *slog.Logger

	inFlight atomic.Bool
}

// New returns a poller publishing batches from the configured metering API
// to the given data queue.
func New(cfg Config, pub Publisher, queue string, logger *slog.Logger) *Service {
	return &Service{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
		pub:    pub,
		queue:  queue,
		logger: logger,
	}
}

// Run polls until ctx is done. Transient failures never escape the loop:
// they reset the schedule per nextDelay and polling continues.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info(fmt.Sprintf("polling %s/meters every %s", s.cfg.URL, s.cfg.PollInterval))

	attempt := 0
	for {
		delay, err := s.pollOnce(ctx)
		if err != nil {
			attempt++
			delay = s.nextDelay(err, attempt)
			s.logger.Warn(fmt.Sprintf("poll failed (#%d): %s, retrying in %s", attempt, err, delay))
		} else {
			attempt = 0
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// pollOnce performs one tick: fetch, classify, publish. It returns the
// nominal delay before the next tick, or an error to be scheduled through
// the backoff path.
func (s *Service) pollOnce(ctx context.Context) (time.Duration, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("request already in flight, skipping poll cycle")
		return s.cfg.PollInterval, nil
	}
	defer s.inFlight.Store(false)

	body, err := s.fetch(ctx)
	if err != nil {
		return 0, err
	}

	out := classify(body)
	switch out.kind {
	case outcomeEmpty:
		return s.cfg.PollInterval, nil
	case outcomeBatch:
		if err := s.pub.Publish(ctx, s.queue, out.raw); err != nil {
			return 0, err
		}
		s.logger.Info(fmt.Sprintf("published batch of %d readings", out.count))
		return s.cfg.PollInterval, nil
	case outcomeErrorBody:
		return 0, errors.Wrap(ErrUpstreamBody, errors.New(out.errBody))
	default:
		return 0, ErrMalformedPayload
	}
}

func (s *Service) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL+"/meters", nil)
	if err != nil {
		return nil, errors.Wrap(ErrTransport, err)
	}
	if s.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(ErrTransport, err)
	}
	if resp.StatusCode == http.StatusOK {
		return body, nil
	}

	failure := errors.Wrap(ErrTransport, errors.New(resp.Status))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		if hint, ok := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
			return nil, withRetryAfter(failure, hint)
		}
	}
	return nil, failure
}
