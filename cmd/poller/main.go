// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

// Package main contains poller main function to start the poller service.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/homewatch/homewatch"
	"github.com/homewatch/homewatch/internal/server"
	httpserver "github.com/homewatch/homewatch/internal/server/http"
	hwlog "github.com/homewatch/homewatch/logger"
	"github.com/homewatch/homewatch/pkg/errors"
	"github.com/homewatch/homewatch/pkg/rabbitmq"
	"github.com/homewatch/homewatch/pkg/uuid"
	"github.com/homewatch/homewatch/poller"
)

const (
	svcName         = "poller"
	envPrefixMeters = "HW_METERS_"
	envPrefixBroker = "HW_RABBITMQ_"
	envPrefixHTTP   = "HW_POLLER_HTTP_"
	defSvcHTTPPort  = "9001"
)

type config struct {
	LogLevel    string `env:"HW_POLLER_LOG_LEVEL"      envDefault:"info"`
	InstanceID  string `env:"HW_POLLER_INSTANCE_ID"    envDefault:""`
	DataQueue   string `env:"HW_RABBITMQ_DATA_QUEUE"   envDefault:"sensor-data"`
	Healthcheck bool   `env:"HW_METERS_HEALTHCHECK"    envDefault:"true"`
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

	pollerCfg := poller.Config{}
	if err := env.ParseWithOptions(&pollerCfg, env.Options{Prefix: envPrefixMeters}); err != nil {
		logger.Error(fmt.Sprintf("failed to load metering API configuration : %s", err))
		exitCode = 1
		return
	}

	if cfg.Healthcheck {
		notify := func(e error, next time.Duration) {
			logger.Info(fmt.Sprintf("Metering API not ready: %s, next try in %s", e, next))
		}
		if err := backoff.RetryNotify(healthcheck(pollerCfg), backoff.NewExponentialBackOff(), notify); err != nil {
			logger.Error(fmt.Sprintf("metering API healthcheck limit exceeded: %s", err))
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

	if err := broker.DeclareQueue(cfg.DataQueue); err != nil {
		logger.Error(fmt.Sprintf("failed to declare queue %s: %s", cfg.DataQueue, err))
		exitCode = 1
		return
	}

	svc := poller.New(pollerCfg, broker, cfg.DataQueue, logger)

	httpServerConfig := server.Config{Port: defSvcHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err))
		exitCode = 1
		return
	}
	hs := httpserver.New(ctx, cancel, svcName, httpServerConfig, healthHandler(cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		if err := svc.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("Poller service terminated: %s", err))
		exitCode = 1
	}
}

func healthHandler(instanceID string) http.Handler {
	mux := chi.NewRouter()
	mux.Get("/health", homewatch.Health(svcName, instanceID))
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func healthcheck(cfg poller.Config) func() error {
	return func() error {
		req, err := http.NewRequest(http.MethodGet, cfg.URL+"/meters", nil)
		if err != nil {
			return err
		}
		req.Header.Set("X-Api-Key", cfg.APIKey)

		res, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return err
		}
		if res.StatusCode >= http.StatusInternalServerError {
			return errors.New(string(body))
		}
		return nil
	}
}
