// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"github.com/homewatch/homewatch/pkg/apiutil"
	"github.com/homewatch/homewatch/writer"
)

const maxLimitSize = 1000

type listReadingsReq struct {
	pageMeta writer.PageMetadata
}

func (req listReadingsReq) validate() error {
	if req.pageMeta.Limit < 1 || req.pageMeta.Limit > maxLimitSize {
		return apiutil.ErrLimitSize
	}

	return nil
}
