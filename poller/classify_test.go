// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

package poller

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		desc  string
		body  string
		kind  outcomeKind
		count int
	}{
		{
			desc:  "non-empty batch",
			body:  `[{"type":"motion","name":"Kitchen","payload":{"motionDetected":true}}]`,
			kind:  outcomeBatch,
			count: 1,
		},
		{
			desc:  "batch of three readings",
			body:  `[{"type":"air_quality","name":"Living Room","payload":{"co2":450,"pm25":12,"humidity":55}},{"type":"motion","name":"Kitchen","payload":{"motionDetected":true}},{"type":"energy","name":"Bedroom","payload":{"energy":1234.56}}]`,
			kind:  outcomeBatch,
			count: 3,
		},
		{
			desc: "empty array",
			body: `[]`,
			kind: outcomeEmpty,
		},
		{
			desc: "error body",
			body: `{"error":"meter offline"}`,
			kind: outcomeErrorBody,
		},
		{
			desc: "object without error field",
			body: `{"status":"ok"}`,
			kind: outcomeMalformed,
		},
		{
			desc: "error field set to null",
			body: `{"error":null}`,
			kind: outcomeMalformed,
		},
		{
			desc: "invalid json",
			body: `{invalid json`,
			kind: outcomeMalformed,
		},
		{
			desc: "truncated array",
			body: `[{"type":`,
			kind: outcomeMalformed,
		},
		{
			desc: "bare null",
			body: `null`,
			kind: outcomeMalformed,
		},
		{
			desc: "empty body",
			body: ``,
			kind: outcomeMalformed,
		},
	}

	for _, tc := range cases {
		out := classify([]byte(tc.body))
		assert.Equal(t, tc.kind, out.kind, fmt.Sprintf("%s: expected kind %d got %d\n", tc.desc, tc.kind, out.kind))
		if tc.kind == outcomeBatch {
			assert.Equal(t, tc.count, out.count, fmt.Sprintf("%s: expected count %d got %d\n", tc.desc, tc.count, out.count))
			assert.Equal(t, tc.body, string(out.raw), fmt.Sprintf("%s: raw body must be preserved untouched\n", tc.desc))
		}
	}
}

func TestClassifyErrorMessage(t *testing.T) {
	out := classify([]byte(`{"error":"meter offline"}`))
	assert.Equal(t, outcomeErrorBody, out.kind)
	assert.Equal(t, "meter offline", out.errBody)
}
