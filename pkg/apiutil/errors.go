// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

package apiutil

import "github.com/homewatch/homewatch/pkg/errors"

// Errors defined in this file are used by the LoggingErrorEncoder decorator
// to distinguish and log API request validation errors and avoid that service
// errors are logged twice.
var (
	// ErrValidation indicates that an error was returned by the API.
	ErrValidation = errors.New("something went wrong with the request")

	// ErrInvalidQueryParams indicates invalid query parameters.
	ErrInvalidQueryParams = errors.New("invalid query parameters")

	// ErrLimitSize indicates that an invalid limit.
	ErrLimitSize = errors.New("invalid limit size")

	// ErrInvalidTimeFormat indicates an invalid time range bound.
	ErrInvalidTimeFormat = errors.New("invalid time format provided")
)
