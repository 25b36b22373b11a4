package rabbitmq

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

type mockConnection struct {
	mu         sync.Mutex
	channel    *mockChannel
	channelErr error
	closed     bool
	reconnects int
}

func (m *mockConnection) Channel() (Channel, error) {
	if m.channelErr != nil {
		return nil, m.channelErr
	}
	return m.channel, nil
}

func (m *mockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConnection) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockConnection) Reconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconnects++
	return nil
}

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type binding struct {
	queue    string
	key      string
	exchange string
}

type mockChannel struct {
	mu         sync.Mutex
	exchanges  map[string]string
	queues     map[string]amqp.Table
	bindings   []binding
	published  []published
	deliveries chan amqp.Delivery
	closeChan  chan *amqp.Error
	prefetch   int
}

func newMockChannel() *mockChannel {
	return &mockChannel{
		exchanges:  make(map[string]string),
		queues:     make(map[string]amqp.Table),
		deliveries: make(chan amqp.Delivery, 16),
		closeChan:  make(chan *amqp.Error, 1),
	}
}

func (m *mockChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exchanges[name] = kind
	return nil
}

func (m *mockChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (Queue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name == "" {
		name = "amq.gen-test"
	}
	m.queues[name] = args
	return Queue{Name: name}, nil
}

func (m *mockChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings = append(m.bindings, binding{queue: name, key: key, exchange: exchange})
	return nil
}

func (m *mockChannel) Publish(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (m *mockChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return m.deliveries, nil
}

func (m *mockChannel) Qos(prefetchCount, prefetchSize int, global bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefetch = prefetchCount
	return nil
}

func (m *mockChannel) Close() error {
	return nil
}

func (m *mockChannel) NotifyClose() <-chan *amqp.Error {
	return m.closeChan
}

// mockAcknowledger records how each delivery was settled
type mockAcknowledger struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	requeue []bool
	settled chan struct{}
}

func newMockAcknowledger() *mockAcknowledger {
	return &mockAcknowledger{settled: make(chan struct{}, 16)}
}

func (m *mockAcknowledger) Ack(tag uint64, multiple bool) error {
	m.mu.Lock()
	m.acked = append(m.acked, tag)
	m.mu.Unlock()
	m.settled <- struct{}{}
	return nil
}

func (m *mockAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	m.mu.Lock()
	m.nacked = append(m.nacked, tag)
	m.requeue = append(m.requeue, requeue)
	m.mu.Unlock()
	m.settled <- struct{}{}
	return nil
}

func (m *mockAcknowledger) Reject(tag uint64, requeue bool) error {
	return m.Nack(tag, false, requeue)
}
