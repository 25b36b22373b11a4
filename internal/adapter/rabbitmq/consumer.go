package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	IntakeQueue      = "intake_queue"
	intakeDLQ        = "intake_queue_dlq"
	intakeDLExchange = "orders_dlq"
	intakeBindingKey = "intake.#"

	reconnectDelay = 5 * time.Second
)

type Consumer struct {
	conn     Connection
	prefetch int
	logger   logger.Logger
}

func NewConsumer(conn Connection, prefetch int, logger logger.Logger) *Consumer {
	return &Consumer{conn: conn, prefetch: prefetch, logger: logger}
}

var _ interfaces.MessageConsumer = (*Consumer)(nil)

// ConsumeOrders delivers intake requests to handler until ctx is cancelled,
// reconnecting whenever the broker drops the channel.
func (c *Consumer) ConsumeOrders(ctx context.Context, handler interfaces.OrderMessageHandler) error {
	return c.loop(ctx, "orders", func() error {
		return c.consumeOrders(ctx, handler)
	})
}

func (c *Consumer) ConsumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	return c.loop(ctx, "notifications", func() error {
		return c.consumeNotifications(ctx, handler)
	})
}

func (c *Consumer) loop(ctx context.Context, name string, consume func() error) error {
	for {
		err := consume()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			return nil
		}

		c.logger.Error("consumer_disconnected", fmt.Sprintf("%s consumer disconnected, reconnecting", name), "", map[string]interface{}{
			"retry_in": reconnectDelay.String(),
		}, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}

		if c.conn.IsClosed() {
			if err := c.conn.Reconnect(); err != nil {
				c.logger.Error("reconnect_failed", "Failed to reconnect to RabbitMQ", "", nil, err)
			}
		}
	}
}

func (c *Consumer) consumeOrders(ctx context.Context, handler interfaces.OrderMessageHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	if err := setupIntake(ch); err != nil {
		return err
	}

	msgs, err := ch.Consume(IntakeQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}
			settle(msg, handler(ctx, msg.Body))
		}
	}
}

// settle acks handled deliveries, requeues transient failures and dead-letters
// everything else.
func settle(msg amqp.Delivery, err error) {
	switch {
	case err == nil:
		msg.Ack(false)
	case errors.Is(err, domain.ErrStoreUnavailable):
		msg.Nack(false, true)
	default:
		msg.Nack(false, false)
	}
}

func (c *Consumer) consumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.ExchangeDeclare(NotificationsExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	// exclusive queue per subscriber
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", NotificationsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}
			// notifications are best effort
			_ = handler(ctx, msg.Body)
		}
	}
}

func setupIntake(ch Channel) error {
	if err := ch.ExchangeDeclare(OrdersExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare orders exchange: %w", err)
	}

	if err := ch.ExchangeDeclare(intakeDLExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(intakeDLQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	if err := ch.QueueBind(intakeDLQ, "", intakeDLExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange": intakeDLExchange,
	}

	q, err := ch.QueueDeclare(IntakeQueue, true, false, false, false, args)
	if err != nil {
		return fmt.Errorf("failed to declare intake queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, intakeBindingKey, OrdersExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind intake queue: %w", err)
	}

	return nil
}
