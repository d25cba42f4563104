// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

package errors

// Errors defined in this file are shared across homewatch services.
var (
	// ErrMalformedEntity indicates a malformed entity specification.
	ErrMalformedEntity = New("malformed entity specification")

	// ErrNotFound indicates a non-existent entity request.
	ErrNotFound = New("entity not found")

	// ErrConflict indicates that an entity with the same identity already exists.
	ErrConflict = New("entity already exists")
)
