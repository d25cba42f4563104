// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

// Package homewatch contains definitions shared by all homewatch services.
package homewatch

// IDProvider specifies an API for generating unique identifiers.
type IDProvider interface {
	// ID generates the unique identifier.
	ID() (string, error)
}
