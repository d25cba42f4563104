// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

// Package logger contains the shared structured logger used by all
// homewatch services.
package logger

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ErrInvalidLogLevel indicates an unrecognized severity level.
var ErrInvalidLogLevel = errors.New("unrecognized log level")

// New returns a JSON slog logger writing to w, filtered at the given
// severity level (debug, info, warn or error).
func New(w io.Writer, levelText string) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(levelText))); err != nil {
		return nil, errors.Join(ErrInvalidLogLevel, err)
	}

	logHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(logHandler), nil
}

// ExitWithError terminates the process with the given code. It is meant
// to be used with defer in service mains so that deferred cleanups run
// before a non-zero exit:
//
//	var exitCode int
//	defer logger.ExitWithError(&exitCode)
func ExitWithError(exitCode *int) {
	os.Exit(*exitCode)
}
