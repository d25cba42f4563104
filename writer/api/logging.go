// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

//go:build !test

package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/homewatch/homewatch/readings"
	"github.com/homewatch/homewatch/writer"
)

var _ writer.Repository = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	repo   writer.Repository
}

// LoggingMiddleware adds logging facilities to the readings repository.
func LoggingMiddleware(repo writer.Repository, logger *slog.Logger) writer.Repository {
	return &loggingMiddleware{
		logger: logger,
		repo:   repo,
	}
}

func (lm *loggingMiddleware) Save(ctx context.Context, rs []readings.Reading) (err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method save for %d readings took %s to complete", len(rs), time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.repo.Save(ctx, rs)
}

func (lm *loggingMiddleware) ReadAll(ctx context.Context, pm writer.PageMetadata) (page writer.Page, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method read_all took %s to complete", time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.repo.ReadAll(ctx, pm)
}
