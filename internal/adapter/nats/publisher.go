package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/tableside/internal/events"
	"github.com/nats-io/nats.go"
)

const (
	SubjectOrderStatus = "orders.status"
	SubjectTableStatus = "tables.status"
)

// Conn is the part of *nats.Conn the adapter uses
type Conn interface {
	Publish(subj string, data []byte) error
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
	Close()
}

func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url, nats.Name("tableside"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

type Publisher struct {
	conn Conn
}

func NewPublisher(conn Conn) *Publisher {
	return &Publisher{conn: conn}
}

func (p *Publisher) PublishEvent(ctx context.Context, evt events.Event) error {
	subject, err := Subject(evt)
	if err != nil {
		return err
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.conn.Publish(subject, body); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.conn.Close()
	return nil
}

func Subject(evt events.Event) (string, error) {
	switch evt.Type {
	case events.EventOrderStatusChanged:
		return SubjectOrderStatus, nil
	case events.EventTableStatusChanged:
		return SubjectTableStatus, nil
	default:
		return "", fmt.Errorf("no subject for event type %q", evt.Type)
	}
}
