// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

package readings

import (
	"encoding/json"
	"time"

	"github.com/homewatch/homewatch"
	"github.com/homewatch/homewatch/pkg/errors"
)

// ErrMalformedBatch indicates a broker payload that is not a JSON array of
// reading messages.
var ErrMalformedBatch = errors.New("malformed reading batch")

// Payload is the loosely-typed wire payload. Field matching is
// case-insensitive, as produced by the different upstream meters.
type Payload struct {
	Co2            *int     `json:"co2"`
	Pm25           *int     `json:"pm25"`
	Humidity       *int     `json:"humidity"`
	MotionDetected *bool    `json:"motionDetected"`
	Energy         *float64 `json:"energy"`
}

// Message is a single reading as transported on the data queue: the shape
// returned by the metering API, untouched by the poller.
type Message struct {
	Type    string   `json:"type"`
	Name    string   `json:"name"`
	Payload *Payload `json:"payload"`
}

// ParseBatch decodes a data-queue envelope body into its messages. Any
// shape other than a JSON array is rejected with ErrMalformedBatch; an
// empty array is valid and yields no messages.
func ParseBatch(data []byte) ([]Message, error) {
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, errors.Wrap(ErrMalformedBatch, err)
	}

	return msgs, nil
}

// Materialize turns wire messages into persistable readings: each element
// gets a fresh identifier from idp and all elements share the single now
// timestamp. Redelivered envelopes therefore materialize with new
// identities; the pipeline deliberately does not deduplicate.
func Materialize(msgs []Message, idp homewatch.IDProvider, now time.Time) ([]Reading, error) {
	readings := make([]Reading, 0, len(msgs))
	for _, m := range msgs {
		kind, err := ParseSensorKind(m.Type)
		if err != nil {
			return nil, errors.Wrap(ErrMalformedBatch, err)
		}
		location, err := ParseLocation(m.Name)
		if err != nil {
			return nil, errors.Wrap(ErrMalformedBatch, err)
		}

		id, err := idp.ID()
		if err != nil {
			return nil, err
		}

		r := Reading{
			ID:         id,
			Kind:       kind,
			Location:   location,
			CapturedAt: now,
		}
		if m.Payload != nil {
			switch kind {
			case AirQuality:
				r.Co2 = m.Payload.Co2
				r.Pm25 = m.Payload.Pm25
				r.Humidity = m.Payload.Humidity
			case Motion:
				r.MotionDetected = m.Payload.MotionDetected
			case Energy:
				r.EnergyKwh = m.Payload.Energy
			}
		}
		if err := r.Validate(); err != nil {
			return nil, errors.Wrap(ErrMalformedBatch, err)
		}

		readings = append(readings, r)
	}

	return readings, nil
}
