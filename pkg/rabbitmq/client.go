// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

// Package rabbitmq provides the RabbitMQ client used by all homewatch
// services: confirmed publishing, pull-based consuming and durable queue
// topology.
package rabbitmq

import (
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/homewatch/homewatch/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	// ErrConnect indicates that connecting to the broker failed.
	ErrConnect = errors.New("failed to connect to message broker")

	// ErrDeclareQueue indicates that queue declaration failed.
	ErrDeclareQueue = errors.New("failed to declare queue")

	// ErrEmptyQueue indicates an empty queue name.
	ErrEmptyQueue = errors.New("empty queue name")
)

// Config holds broker connection settings, loaded from the environment
// with the HW_RABBITMQ_ prefix.
type Config struct {
	Host  string `env:"HOST"   envDefault:"localhost"`
	Port  string `env:"PORT"   envDefault:"5672"`
	User  string `env:"USER"   envDefault:"guest"`
	Pass  string `env:"PASS"   envDefault:"guest"`
	VHost string `env:"VHOST"  envDefault:"/"`
}

// URL returns the AMQP connection URL for the configuration.
func (cfg Config) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Pass),
		cfg.Host,
		cfg.Port,
		url.QueryEscape(cfg.VHost),
	)
}

// Client wraps a single AMQP connection/channel pair in confirm mode. The
// pair is owned exclusively by the client; a connect guard prevents two
// concurrent reconnect attempts when a health check races a publish.
type Client struct {
	url    string
	logger *slog.Logger

	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed bool

	flowPaused atomic.Bool
}

// Connect establishes a broker connection and a confirm-tracking channel.
// Relay services treat a failure here as fatal at startup.
func Connect(cfg Config, logger *slog.Logger) (*Client, error) {
	return ConnectURL(cfg.URL(), logger)
}

// ConnectURL is Connect for a pre-built AMQP URL.
func ConnectURL(url string, logger *slog.Logger) (*Client, error) {
	c := &Client{url: url, logger: logger}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.dial(); err != nil {
		return nil, errors.Wrap(ErrConnect, err)
	}

	return c, nil
}

// dial must be called with mu held.
func (c *Client) dial() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	flow := ch.NotifyFlow(make(chan bool, 1))
	go c.watchFlow(flow)

	c.conn = conn
	c.ch = ch
	c.flowPaused.Store(false)

	return nil
}

func (c *Client) watchFlow(flow <-chan bool) {
	for paused := range flow {
		c.flowPaused.Store(paused)
		if paused {
			c.logger.Warn("broker paused channel flow")
		}
	}
}

// channel returns a healthy channel, reconnecting under the guard if the
// previous connection dropped.
func (c *Client) channel() (*amqp.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.Wrap(ErrConnect, errors.New("client is closed"))
	}
	if c.conn != nil && !c.conn.IsClosed() && c.ch != nil && !c.ch.IsClosed() {
		return c.ch, nil
	}
	if err := c.dial(); err != nil {
		return nil, errors.Wrap(ErrConnect, err)
	}

	return c.ch, nil
}

// DeclareQueue declares a durable queue. The declaration is idempotent and
// safe to repeat on every connect.
func (c *Client) DeclareQueue(name string) error {
	if name == "" {
		return ErrEmptyQueue
	}
	ch, err := c.channel()
	if err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return errors.Wrap(ErrDeclareQueue, err)
	}

	return nil
}

// Close shuts the channel and connection down, in that order. It is
// idempotent, and close-time errors are logged rather than propagated.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.ch != nil {
		if err := c.ch.Close(); err != nil {
			c.logger.Warn(fmt.Sprintf("failed to close channel: %s", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Warn(fmt.Sprintf("failed to close connection: %s", err))
		}
	}

	return nil
}
