package interfaces

import (
	"context"

	"github.com/YelzhanWeb/tableside/internal/events"
	"github.com/shopspring/decimal"
)

// OrderMessage is an intake request arriving over the broker
type OrderMessage struct {
	ServiceType   string             `json:"service_type"`
	TableRef      string             `json:"table_ref,omitempty"`
	Items         []OrderItemMessage `json:"items"`
	Total         decimal.Decimal    `json:"total"`
	PaymentMethod string             `json:"payment_method"`
}

type OrderItemMessage struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Commands for services
type CreateOrderCommand struct {
	ServiceType   string
	TableRef      string
	Items         []CreateOrderItemCommand
	Total         decimal.Decimal
	PaymentMethod string
	Source        string
}

type CreateOrderItemCommand struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// EventPublisher forwards lifecycle events to an external broker
type EventPublisher interface {
	PublishEvent(ctx context.Context, evt events.Event) error
	Close() error
}

type NotificationConsumer interface {
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type MessageConsumer interface {
	NotificationConsumer
	ConsumeOrders(ctx context.Context, handler OrderMessageHandler) error
}

type (
	OrderMessageHandler func(ctx context.Context, body []byte) error
	NotificationHandler func(ctx context.Context, body []byte) error
)
