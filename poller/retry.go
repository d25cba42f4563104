// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

package poller

import (
	stderr "errors"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// minRetryDelay floors jittered delays so a zero jitter cannot turn into a
// busy loop.
const minRetryDelay = 250 * time.Millisecond

// retryHint decorates a failure with an upstream Retry-After hint.
type retryHint struct {
	err   error
	delay time.Duration
}

func (e *retryHint) Error() string { return e.err.Error() }

func (e *retryHint) Unwrap() error { return e.err }

func withRetryAfter(err error, delay time.Duration) error {
	return &retryHint{err: err, delay: delay}
}

func retryAfter(err error) (time.Duration, bool) {
	var hint *retryHint
	if stderr.As(err, &hint) {
		return hint.delay, true
	}
	return 0, false
}

// parseRetryAfter reads a Retry-After header value, either numeric seconds
// or an HTTP date. A zero value or a past date yields a zero delay.
func parseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, true
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

// nextDelay computes the wait before the next poll after a failure. A
// server-supplied hint wins: hint plus grace padding, capped at the
// configured maximum, with a zero hint meaning retry immediately. Without a
// hint the delay is exponential in the attempt number with uniform jitter.
func (s *Service) nextDelay(err error, attempt int) time.Duration {
	if hint, ok := retryAfter(err); ok {
		if hint <= 0 {
			return 0
		}
		d := hint + s.cfg.RetryGrace
		if d > s.cfg.MaxRetryDelay {
			d = s.cfg.MaxRetryDelay
		}
		return d
	}

	exp := s.cfg.PollInterval << (attempt - 1)
	if exp <= 0 || exp > s.cfg.MaxRetryDelay {
		exp = s.cfg.MaxRetryDelay
	}
	d := time.Duration(rand.Int63n(int64(exp) + 1))
	if d < minRetryDelay {
		d = minRetryDelay
	}
	return d
}
