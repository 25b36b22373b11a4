package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/YelzhanWeb/tableside/internal/events"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	NotificationsExchange = "notifications_fanout"
	OrdersExchange        = "orders_topic"
)

type Publisher struct {
	conn Connection

	mu       sync.Mutex
	declared bool
}

func NewPublisher(conn Connection) *Publisher {
	return &Publisher{conn: conn}
}

// PublishEvent sends the event to the notifications fanout. The routing key
// carries the event type for subscribers that bind a topic exchange to it.
func (p *Publisher) PublishEvent(ctx context.Context, evt events.Event) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := p.declare(ch); err != nil {
		return err
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = ch.Publish(ctx, NotificationsExchange, evt.Type, false, false, amqp.Publishing{
		ContentType: "application/json",
		Type:        evt.Type,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

func (p *Publisher) Close() error {
	return p.conn.Close()
}

func (p *Publisher) declare(ch Channel) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.declared {
		return nil
	}
	if err := ch.ExchangeDeclare(NotificationsExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	p.declared = true
	return nil
}
