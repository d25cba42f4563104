// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"

	"github.com/go-kit/kit/endpoint"

	"github.com/homewatch/homewatch/pkg/apiutil"
	"github.com/homewatch/homewatch/pkg/errors"
	"github.com/homewatch/homewatch/writer"
)

func listReadingsEndpoint(repo writer.Repository) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(listReadingsReq)
		if err := req.validate(); err != nil {
			return nil, errors.Wrap(apiutil.ErrValidation, err)
		}

		page, err := repo.ReadAll(ctx, req.pageMeta)
		if err != nil {
			return nil, err
		}

		return pageRes{
			Total:    page.Total,
			Offset:   page.Offset,
			Limit:    page.Limit,
			Readings: page.Readings,
		}, nil
	}
}
