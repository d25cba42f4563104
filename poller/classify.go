// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

package poller

import (
	"bytes"
	"encoding/json"
)

type outcomeKind int

const (
	// outcomeEmpty is a well-formed response carrying zero readings.
	outcomeEmpty outcomeKind = iota

	// outcomeBatch is a well-formed response carrying at least one reading.
	outcomeBatch

	// outcomeErrorBody is a well-formed error payload instead of data.
	outcomeErrorBody

	// outcomeMalformed is neither an array nor an error object.
	outcomeMalformed
)

// outcome is the decoded shape of a metering API response.
type outcome struct {
	kind    outcomeKind
	count   int
	raw     []byte
	errBody string
}

// classify maps a response body to its outcome. It is a pure function; the
// raw body of a non-empty batch is preserved untouched so the poller can
// forward exactly what the source returned.
func classify(body []byte) outcome {
	trimmed := bytes.TrimLeft(body, " \t\r\n")

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var batch []json.RawMessage
		if err := json.Unmarshal(trimmed, &batch); err != nil {
			return outcome{kind: outcomeMalformed}
		}
		if len(batch) == 0 {
			return outcome{kind: outcomeEmpty}
		}
		return outcome{kind: outcomeBatch, count: len(batch), raw: body}
	}

	var errBody struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &errBody); err == nil && errBody.Error != nil {
		return outcome{kind: outcomeErrorBody, errBody: *errBody.Error}
	}

	return outcome{kind: outcomeMalformed}
}
