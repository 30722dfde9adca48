package mqtt

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	_operationWait   = 5 * time.Second
	_disconnectQuiet = 250
)

var ErrClientClosed = errors.New("mqtt client closed")

//go:generate mockgen -source=./client.go -destination=../../../test/unit/doubles/infra/mqtt/client_mock.go -package=mqtt

type Client interface {
	Subscribe(topic string, qos byte, callback MessageHandler) error

	Disconnect()
}

type MessageHandler func(Client, Message)

type Message interface {
	Topic() string
	MessageID() uint16
	Payload() []byte
	Ack()
}

type SimpleClientOpts struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

type subscription struct {
	topic    string
	qos      byte
	callback MessageHandler
}

var _ Client = (*SimpleClient)(nil)

type SimpleClient struct {
	client        paho.Client
	subscriptions map[string]subscription
	mu            sync.RWMutex
}

// NewSimpleClient connects to the broker and keeps subscriptions alive
// across reconnections.
func NewSimpleClient(opts SimpleClientOpts) (*SimpleClient, error) {
	if opts.Broker == "" {
		return nil, fmt.Errorf("mqtt broker address is required")
	}

	simpleClient := &SimpleClient{
		subscriptions: make(map[string]subscription),
	}

	pahoOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetOnConnectHandler(func(client paho.Client) {
			slog.Info("connected to MQTT broker", slog.String("broker", opts.Broker))
			simpleClient.resubscribeAll(client)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			slog.Error("connection lost to MQTT broker", slog.Any("error", err))
		}).
		SetAutoReconnect(true).
		SetKeepAlive(10 * time.Second).
		SetConnectTimeout(_operationWait)

	client := paho.NewClient(pahoOpts)
	token := client.Connect()
	if !token.WaitTimeout(_operationWait) {
		return nil, fmt.Errorf("connecting to %s: timeout", opts.Broker)
	}
	if token.Error() != nil {
		return nil, fmt.Errorf("connecting to %s: %w", opts.Broker, token.Error())
	}

	simpleClient.client = client
	return simpleClient, nil
}

// LazyClient defers the broker connection until the first caller needs it
// and shares the resulting client.
type LazyClient struct {
	connect func() (Client, error)

	once   sync.Once
	mu     sync.Mutex
	client Client
	err    error
}

func NewLazyClient(opts SimpleClientOpts) *LazyClient {
	return newLazyClient(func() (Client, error) {
		client, err := NewSimpleClient(opts)
		if err != nil {
			return nil, err
		}
		return client, nil
	})
}

func newLazyClient(connect func() (Client, error)) *LazyClient {
	return &LazyClient{connect: connect}
}

// Get connects on the first call. Later calls share the client or the
// connection error.
func (l *LazyClient) Get() (Client, error) {
	l.once.Do(func() {
		client, err := l.connect()

		l.mu.Lock()
		defer l.mu.Unlock()
		if err != nil {
			l.err = err
			return
		}
		l.client = client
	})

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.client, l.err
}

// Disconnect closes the client if Get ever connected it. A closed
// LazyClient keeps failing with ErrClientClosed.
func (l *LazyClient) Disconnect() {
	l.once.Do(func() {})

	l.mu.Lock()
	client := l.client
	l.client = nil
	if l.err == nil {
		l.err = ErrClientClosed
	}
	l.mu.Unlock()

	if client != nil {
		client.Disconnect()
	}
}

func (c *SimpleClient) resubscribeAll(client paho.Client) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.subscriptions) == 0 {
		return
	}

	slog.Info("restoring MQTT subscriptions after reconnection", slog.Int("count", len(c.subscriptions)))
	for _, sub := range c.subscriptions {
		token := client.Subscribe(sub.topic, sub.qos, c.pahoCallback(sub.callback))
		token.WaitTimeout(_operationWait)
		if token.Error() != nil {
			slog.Error("failed to restore subscription",
				slog.String("topic", sub.topic),
				slog.Any("error", token.Error()))
		}
	}
}

func (c *SimpleClient) pahoCallback(callback MessageHandler) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		callback(c, msg)
	}
}

func (c *SimpleClient) Subscribe(topic string, qos byte, callback MessageHandler) error {
	c.mu.Lock()
	c.subscriptions[topic] = subscription{topic: topic, qos: qos, callback: callback}
	c.mu.Unlock()

	token := c.client.Subscribe(topic, qos, c.pahoCallback(callback))
	token.WaitTimeout(_operationWait)
	if token.Error() != nil {
		c.mu.Lock()
		delete(c.subscriptions, topic)
		c.mu.Unlock()
		return fmt.Errorf("subscribing to topic %s: %w", topic, token.Error())
	}

	slog.Info("subscribed to MQTT topic", slog.String("topic", topic), slog.Int("qos", int(qos)))
	return nil
}

func (c *SimpleClient) Disconnect() {
	c.mu.Lock()
	c.subscriptions = make(map[string]subscription)
	c.mu.Unlock()

	c.client.Disconnect(_disconnectQuiet)
}
