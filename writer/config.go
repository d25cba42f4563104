// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

package writer

import (
	"os"

	"github.com/pelletier/go-toml"

	"github.com/homewatch/homewatch/pkg/errors"
)

const (
	defDataQueue   = "sensor-data"
	defNotifyQueue = "sensor-notifications"
)

var (
	errOpenConfFile  = errors.New("unable to open configuration file")
	errParseConfFile = errors.New("unable to parse configuration file")
)

type queueConfig struct {
	Data          string `toml:"data"`
	Notifications string `toml:"notifications"`
}

// ConsumerConfig holds the file-based relay configuration. Queue names
// default to the standard topology when the file is absent.
type ConsumerConfig struct {
	Queues queueConfig `toml:"queues"`
}

// LoadConfig reads the relay configuration from a TOML file. The returned
// config holds defaults even when an error is reported, so a missing file
// downgrades to a warning at the call site.
func LoadConfig(configPath string) (ConsumerConfig, error) {
	cfg := ConsumerConfig{
		Queues: queueConfig{
			Data:          defDataQueue,
			Notifications: defNotifyQueue,
		},
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, errors.Wrap(errOpenConfFile, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errParseConfFile, err)
	}

	return cfg, nil
}
