// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

package logger_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/homewatch/homewatch/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logMsg struct {
	Level   string `json:"level"`
	Message string `json:"msg"`
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := logger.New(&bytes.Buffer{}, "trace")
	assert.ErrorIs(t, err, logger.ErrInvalidLogLevel)
}

func TestLevelFiltering(t *testing.T) {
	cases := []struct {
		desc      string
		level     string
		logged    bool
		logAtWarn bool
	}{
		{
			desc:   "warn is emitted at info level",
			level:  "info",
			logged: true,
		},
		{
			desc:   "warn is emitted at debug level",
			level:  "debug",
			logged: true,
		},
		{
			desc:   "warn is suppressed at error level",
			level:  "error",
			logged: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := logger.New(&buf, tc.level)
			require.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))

			l.Warn("warn message")

			if !tc.logged {
				assert.Zero(t, buf.Len())
				return
			}

			var out logMsg
			err = json.Unmarshal(buf.Bytes(), &out)
			require.Nil(t, err, fmt.Sprintf("got unexpected error: %s", err))
			assert.Equal(t, "WARN", out.Level)
			assert.Equal(t, "warn message", out.Message)
		})
	}
}
