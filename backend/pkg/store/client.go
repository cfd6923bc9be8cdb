// Package store adapts an MQTT broker into the shared key/value store the
// sync layer is written against: one retained topic per path, a retained
// publish as an atomic last-write-wins write, a retained subscription as the
// pub/sub read stream, and a retained-clear as a delete. It offers no
// request/reply correlation and no delivery guarantee beyond "last write
// wins, subscribers get updates" - those properties are built on top of it.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"relay-bridge/backend/pkg/utils"
)

const (
	connectTimeout = 5 * time.Second
	writeTimeout   = 10 * time.Second
	keepAlive      = 30 * time.Second

	// disconnectGrace is the time given to in-flight messages on Disconnect.
	disconnectGrace = 250 * time.Millisecond
)

// Options contains configuration for connecting to the backing broker.
type Options struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
}

// Client is the store capability: subscribe(path) and write(path, record)
// over retained MQTT messages. Subscriptions are registered before Connect
// and re-established on every (re)connection. Automatic reconnection is
// deliberately disabled: connection loss is surfaced through the error
// callback so the caller owns the retry policy.
type Client struct {
	l             *slog.Logger
	client        mqtt.Client
	subscriptions map[string]*SubscriptionSpec
	onError       atomic.Pointer[func(error)]

	runConnectOnce atomic.Bool
}

// New creates a store client for the given broker configuration.
func New(l *slog.Logger, opts Options) (*Client, error) {
	l = l.With(slog.String("component", "store-client"))

	if opts.BrokerURL == "" {
		return nil, errors.New("broker URL is required")
	}

	if opts.ClientID == "" {
		return nil, errors.New("client ID is required")
	}

	c := &Client{
		l:             l,
		subscriptions: make(map[string]*SubscriptionSpec),
	}

	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(opts.BrokerURL)
	clientOpts.SetClientID(opts.ClientID)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}

	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	// Reconnection is driven by the liveness monitor, not by the client
	clientOpts.SetAutoReconnect(false)
	clientOpts.SetConnectRetry(false)
	clientOpts.SetConnectTimeout(connectTimeout)
	clientOpts.SetKeepAlive(keepAlive)

	clientOpts.SetOnConnectHandler(c.onConnect)
	clientOpts.SetConnectionLostHandler(c.onConnectionLost)

	c.client = mqtt.NewClient(clientOpts)

	l.Info("store client created", slog.String("broker", opts.BrokerURL), slog.String("clientID", opts.ClientID))

	return c, nil
}

// RegisterSubscribe registers a subscription. Must be called before Connect.
func (c *Client) RegisterSubscribe(spec SubscriptionSpec) error {
	if c.runConnectOnce.Load() {
		return errors.New("cannot register subscription after connecting to the store")
	}

	if err := validatePathPattern(spec.Path); err != nil {
		return fmt.Errorf("invalid path pattern: %w", err)
	}

	if err := validateQoS(spec.QoS); err != nil {
		return fmt.Errorf("invalid subscription spec: %w", err)
	}

	if spec.Handler == nil {
		return errors.New("invalid subscription spec: handler is required")
	}

	if _, exists := c.subscriptions[spec.Path]; exists {
		return fmt.Errorf("duplicate subscription path: %s", spec.Path)
	}

	c.subscriptions[spec.Path] = &spec

	c.l.Info("registered subscription", slog.String("path", spec.Path))

	return nil
}

// OnSubscriptionError sets the callback invoked when the connection to the
// store is lost. May be called before or after Connect.
func (c *Client) OnSubscriptionError(fn func(error)) {
	c.onError.Store(&fn)
}

// Connect establishes the broker connection and activates all registered
// subscriptions.
func (c *Client) Connect() error {
	c.runConnectOnce.Store(true)

	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return errors.New("timed out connecting to store")
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to store: %w", err)
	}

	c.l.Info("connected to store")

	return nil
}

// Reconnect re-establishes a lost connection. Registered subscriptions are
// restored by the connect callback. A no-op while connected.
func (c *Client) Reconnect() error {
	if c.client.IsConnectionOpen() {
		return nil
	}

	return c.Connect()
}

// Disconnect closes the broker connection.
func (c *Client) Disconnect() {
	if !c.client.IsConnected() {
		return
	}

	c.l.Info("disconnecting from store...")
	c.client.Disconnect(uint(disconnectGrace.Milliseconds()))
	c.l.Info("disconnected from store")
}

// IsConnected reports whether the store connection is open.
func (c *Client) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Write atomically replaces the record at path. The write is retained, so
// late subscribers observe the latest record (last write wins).
func (c *Client) Write(path string, record any) error {
	if err := validateConcretePath(path); err != nil {
		return fmt.Errorf("invalid write path: %w", err)
	}

	payload, err := utils.ToJSON(record)
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	return c.publish(path, payload)
}

// Delete removes the record at path by clearing the retained value.
// Subscribers observe the deletion as an empty payload.
func (c *Client) Delete(path string) error {
	if err := validateConcretePath(path); err != nil {
		return fmt.Errorf("invalid delete path: %w", err)
	}

	return c.publish(path, []byte{})
}

func (c *Client) publish(path string, payload []byte) error {
	token := c.client.Publish(path, byte(QoSAtLeastOnce), true, payload)
	if !token.WaitTimeout(writeTimeout) {
		return fmt.Errorf("timed out writing to path %s", path)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to write to path %s: %w", path, err)
	}

	return nil
}

// onConnect is called on every successful (re)connection and restores all
// registered subscriptions.
func (c *Client) onConnect(client mqtt.Client) {
	c.l.Info("connected to store, subscribing", slog.Int("subscriptionCount", len(c.subscriptions)))

	for _, spec := range c.subscriptions {
		handler := spec.Handler

		token := client.Subscribe(toWildcard(spec.Path), byte(spec.QoS), func(_ mqtt.Client, msg mqtt.Message) {
			handler(msg.Topic(), msg.Payload())
		})
		token.Wait()

		if err := token.Error(); err != nil {
			c.l.Error("failed to subscribe", slog.String("path", spec.Path), utils.ErrAttr(err))

			continue
		}

		c.l.Info("subscribed", slog.String("path", spec.Path))
	}
}

// onConnectionLost surfaces store-level failures to the registered callback.
func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	c.l.Warn("connection to store lost", utils.ErrAttr(err))

	if fn := c.onError.Load(); fn != nil {
		(*fn)(err)
	}
}
