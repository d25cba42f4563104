// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

// Package readings contains the canonical sensor reading model flowing
// through the homewatch pipeline, together with the wire format consumed
// from the metering API.
package readings

import (
	"strings"
	"time"

	"github.com/homewatch/homewatch/pkg/errors"
)

var (
	// ErrUnknownKind indicates a sensor kind outside the supported set.
	ErrUnknownKind = errors.New("unknown sensor kind")

	// ErrUnknownLocation indicates a location outside the supported set.
	ErrUnknownLocation = errors.New("unknown sensor location")

	// ErrInvalidPayload indicates a payload inconsistent with the sensor kind.
	ErrInvalidPayload = errors.New("payload does not match sensor kind")
)

// SensorKind is the closed set of supported sensor types.
type SensorKind string

const (
	AirQuality SensorKind = "air_quality"
	Motion     SensorKind = "motion"
	Energy     SensorKind = "energy"
)

// ParseSensorKind maps a wire type string to a SensorKind.
func ParseSensorKind(s string) (SensorKind, error) {
	switch SensorKind(strings.ToLower(s)) {
	case AirQuality:
		return AirQuality, nil
	case Motion:
		return Motion, nil
	case Energy:
		return Energy, nil
	default:
		return "", errors.Wrap(ErrUnknownKind, errors.New(s))
	}
}

// Location is the closed set of physical zones carrying sensors.
type Location string

const (
	Kitchen    Location = "Kitchen"
	Garage     Location = "Garage"
	Bedroom    Location = "Bedroom"
	LivingRoom Location = "Living Room"
	Office     Location = "Office"
	Corridor   Location = "Corridor"
)

var locations = map[string]Location{
	"kitchen":     Kitchen,
	"garage":      Garage,
	"bedroom":     Bedroom,
	"living room": LivingRoom,
	"office":      Office,
	"corridor":    Corridor,
}

// ParseLocation maps a wire zone name to a Location, case-insensitively.
func ParseLocation(s string) (Location, error) {
	if l, ok := locations[strings.ToLower(s)]; ok {
		return l, nil
	}
	return "", errors.Wrap(ErrUnknownLocation, errors.New(s))
}

// RoutingLabel returns the location in routing-key form, with spaces
// replaced by underscores.
func (l Location) RoutingLabel() string {
	return strings.ToLower(strings.ReplaceAll(string(l), " ", "_"))
}

// Reading is the canonical persisted unit. Identity and timestamp are
// assigned by the ingest relay at persistence time, never at capture time.
// Exactly one payload variant is set, matching Kind; fields of the other
// variants stay nil, never zero-filled.
type Reading struct {
	ID             string     `json:"id" db:"id"`
	Kind           SensorKind `json:"type" db:"type"`
	Location       Location   `json:"name" db:"name"`
	Co2            *int       `json:"co2,omitempty" db:"co2"`
	Pm25           *int       `json:"pm25,omitempty" db:"pm25"`
	Humidity       *int       `json:"humidity,omitempty" db:"humidity"`
	MotionDetected *bool      `json:"motionDetected,omitempty" db:"motion_detected"`
	EnergyKwh      *float64   `json:"energy,omitempty" db:"energy_kwh"`
	CapturedAt     time.Time  `json:"capturedAt" db:"captured_at"`
}

// Validate checks that the active payload variant is complete and that no
// foreign variant field is set.
func (r Reading) Validate() error {
	switch r.Kind {
	case AirQuality:
		if r.Co2 == nil || r.Pm25 == nil || r.Humidity == nil {
			return errors.Wrap(ErrInvalidPayload, errors.New("incomplete air quality payload"))
		}
		if r.MotionDetected != nil || r.EnergyKwh != nil {
			return errors.Wrap(ErrInvalidPayload, errors.New("foreign variant fields set"))
		}
	case Motion:
		if r.MotionDetected == nil {
			return errors.Wrap(ErrInvalidPayload, errors.New("missing motion payload"))
		}
		if r.Co2 != nil || r.Pm25 != nil || r.Humidity != nil || r.EnergyKwh != nil {
			return errors.Wrap(ErrInvalidPayload, errors.New("foreign variant fields set"))
		}
	case Energy:
		if r.EnergyKwh == nil {
			return errors.Wrap(ErrInvalidPayload, errors.New("missing energy payload"))
		}
		if r.Co2 != nil || r.Pm25 != nil || r.Humidity != nil || r.MotionDetected != nil {
			return errors.Wrap(ErrInvalidPayload, errors.New("foreign variant fields set"))
		}
	default:
		return errors.Wrap(ErrUnknownKind, errors.New(string(r.Kind)))
	}

	return nil
}
