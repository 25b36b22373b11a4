package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/YelzhanWeb/tableside/internal/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	connectionName = "tableside"
	heartbeat      = 10 * time.Second
)

var errConnectionClosed = errors.New("rabbitmq connection closed")

// Connection is a redialable broker session. Consumers call Reconnect after
// the broker drops it; Close is final.
type Connection interface {
	Channel() (Channel, error)
	IsClosed() bool
	Reconnect() error
	Close() error
}

// Channel is the slice of *amqp.Channel used by the publisher and consumers
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Publish(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	NotifyClose() <-chan *amqp.Error
	Close() error
}

type Queue struct {
	Name string
}

type session struct {
	mu     sync.RWMutex
	uri    string
	conn   *amqp.Connection
	closed bool
}

func Connect(cfg config.RabbitMQConfig) (Connection, error) {
	s := &session{uri: brokerURI(cfg)}

	conn, err := s.dial()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	s.conn = conn

	return s, nil
}

func (s *session) dial() (*amqp.Connection, error) {
	return amqp.DialConfig(s.uri, amqp.Config{
		Heartbeat:  heartbeat,
		Locale:     "en_US",
		Properties: amqp.Table{"connection_name": connectionName},
	})
}

func (s *session) Channel() (Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errConnectionClosed
	}

	ch, err := s.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return channel{ch}, nil
}

func (s *session) IsClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed || s.conn.IsClosed()
}

// Reconnect is a no-op while the current connection is still open
func (s *session) Reconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errConnectionClosed
	}
	if !s.conn.IsClosed() {
		return nil
	}

	conn, err := s.dial()
	if err != nil {
		return fmt.Errorf("failed to reconnect to RabbitMQ: %w", err)
	}
	s.conn = conn
	return nil
}

func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.conn.IsClosed() {
		return nil
	}
	return s.conn.Close()
}

func brokerURI(cfg config.RabbitMQConfig) string {
	return amqp.URI{
		Scheme:   "amqp",
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.User,
		Password: cfg.Password,
		Vhost:    "/",
	}.String()
}

// channel adapts *amqp.Channel; only the methods whose shape differs are
// spelled out.
type channel struct {
	*amqp.Channel
}

func (c channel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (Queue, error) {
	q, err := c.Channel.QueueDeclare(name, durable, autoDelete, exclusive, noWait, args)
	if err != nil {
		return Queue{}, err
	}
	return Queue{Name: q.Name}, nil
}

func (c channel) Publish(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return c.Channel.PublishWithContext(ctx, exchange, key, mandatory, immediate, msg)
}

func (c channel) NotifyClose() <-chan *amqp.Error {
	return c.Channel.NotifyClose(make(chan *amqp.Error, 1))
}
