// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

// Package main contains writer main function to start the writer service.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/homewatch/homewatch/internal"
	"github.com/homewatch/homewatch/internal/server"
	httpserver "github.com/homewatch/homewatch/internal/server/http"
	hwlog "github.com/homewatch/homewatch/logger"
	pgclient "github.com/homewatch/homewatch/pkg/postgres"
	"github.com/homewatch/homewatch/pkg/rabbitmq"
	"github.com/homewatch/homewatch/pkg/uuid"
	"github.com/homewatch/homewatch/writer"
	"github.com/homewatch/homewatch/writer/api"
	writerpg "github.com/homewatch/homewatch/writer/postgres"
)

const (
	svcName         = "writer"
	envPrefixDB     = "HW_DB_"
	envPrefixBroker = "HW_RABBITMQ_"
	envPrefixHTTP   = "HW_WRITER_HTTP_"
	defSvcHTTPPort  = "9002"
)

type config struct {
	LogLevel   string `env:"HW_WRITER_LOG_LEVEL"    envDefault:"info"`
	ConfigPath string `env:"HW_WRITER_CONFIG_PATH"  envDefault:"/config.toml"`
	InstanceID string `env:"HW_WRITER_INSTANCE_ID"  envDefault:""`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	cfg := config{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load %s configuration : %s", svcName, err)
	}

	logger, err := hwlog.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %s", err)
	}

	var exitCode int
	defer hwlog.ExitWithError(&exitCode)

	if cfg.InstanceID == "" {
		if cfg.InstanceID, err = uuid.New().ID(); err != nil {
			logger.Error(fmt.Sprintf("failed to generate instanceID: %s", err))
			exitCode = 1
			return
		}
	}

	queues, err := writer.LoadConfig(cfg.ConfigPath)
	if err != nil {
		logger.Warn(fmt.Sprintf("Failed to load consumer config: %s", err))
	}

	dbConfig := pgclient.Config{}
	if err := env.ParseWithOptions(&dbConfig, env.Options{Prefix: envPrefixDB}); err != nil {
		logger.Error(fmt.Sprintf("failed to load database configuration : %s", err))
		exitCode = 1
		return
	}
	db, err := pgclient.Setup(dbConfig, writerpg.Migration())
	if err != nil {
		logger.Error(err.Error())
		exitCode = 1
		return
	}
	defer db.Close()

	brokerCfg := rabbitmq.Config{}
	if err := env.ParseWithOptions(&brokerCfg, env.Options{Prefix: envPrefixBroker}); err != nil {
		logger.Error(fmt.Sprintf("failed to load broker configuration : %s", err))
		exitCode = 1
		return
	}
	broker, err := rabbitmq.Connect(brokerCfg, logger)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to connect to message broker: %s", err))
		exitCode = 1
		return
	}
	defer broker.Close()

	if err := broker.DeclareQueue(queues.Queues.Notifications); err != nil {
		logger.Error(fmt.Sprintf("failed to declare queue %s: %s", queues.Queues.Notifications, err))
		exitCode = 1
		return
	}

	repo := newService(db, logger)
	svc := writer.New(repo, broker, queues.Queues.Notifications, uuid.New(), logger)

	deliveries, err := broker.Consume(ctx, queues.Queues.Data, false)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to consume queue %s: %s", queues.Queues.Data, err))
		exitCode = 1
		return
	}

	httpServerConfig := server.Config{Port: defSvcHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err))
		exitCode = 1
		return
	}
	hs := httpserver.New(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(repo, logger, svcName, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		if err := svc.Consume(ctx, deliveries); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("Writer service terminated: %s", err))
		exitCode = 1
	}
}

func newService(db *sqlx.DB, logger *slog.Logger) writer.Repository {
	repo := writerpg.New(db)
	repo = api.LoggingMiddleware(repo, logger)
	counter, latency := internal.MakeMetrics("writer", "readings")
	repo = api.MetricsMiddleware(repo, counter, latency)
	return repo
}
