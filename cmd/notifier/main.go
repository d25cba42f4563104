// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

// Package main contains notifier main function to start the notifier service.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v10"
	"golang.org/x/sync/errgroup"

	"github.com/homewatch/homewatch/internal"
	"github.com/homewatch/homewatch/internal/server"
	httpserver "github.com/homewatch/homewatch/internal/server/http"
	hwlog "github.com/homewatch/homewatch/logger"
	"github.com/homewatch/homewatch/notifier"
	"github.com/homewatch/homewatch/notifier/api"
	"github.com/homewatch/homewatch/pkg/rabbitmq"
	"github.com/homewatch/homewatch/pkg/uuid"
)

const (
	svcName         = "notifier"
	envPrefixBroker = "HW_RABBITMQ_"
	envPrefixHTTP   = "HW_NOTIFIER_HTTP_"
	defSvcHTTPPort  = "9003"
)

type config struct {
	LogLevel    string `env:"HW_NOTIFIER_LOG_LEVEL"             envDefault:"info"`
	InstanceID  string `env:"HW_NOTIFIER_INSTANCE_ID"           envDefault:""`
	NotifyQueue string `env:"HW_RABBITMQ_NOTIFICATION_QUEUE"    envDefault:"sensor-notifications"`
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

	hub := notifier.NewHub(logger)
	svc := notifier.New(newBroadcaster(hub, logger), logger)

	deliveries, err := broker.Consume(ctx, cfg.NotifyQueue, false)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to consume queue %s: %s", cfg.NotifyQueue, err))
		exitCode = 1
		return
	}

	httpServerConfig := server.Config{Port: defSvcHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err))
		exitCode = 1
		return
	}
	hs := httpserver.New(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(hub, logger, svcName, cfg.InstanceID), logger)

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
		logger.Error(fmt.Sprintf("Notifier service terminated: %s", err))
		exitCode = 1
	}
}

func newBroadcaster(hub *notifier.Hub, logger *slog.Logger) notifier.Broadcaster {
	var b notifier.Broadcaster = hub
	b = api.LoggingMiddleware(b, logger)
	counter, latency := internal.MakeMetrics("notifier", "events")
	b = api.MetricsMiddleware(b, counter, latency)
	return b
}
