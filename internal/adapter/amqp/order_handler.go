package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
)

const intakeSource = "amqp-intake"

type OrderHandler struct {
	service interfaces.OrderService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

// HandleOrder creates an order from an intake message. Malformed bodies are
// reported as invalid orders so the consumer dead-letters them.
func (h *OrderHandler) HandleOrder(ctx context.Context, body []byte) error {
	var msg interfaces.OrderMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse order message", "", nil, err)
		return fmt.Errorf("%w: %v", domain.ErrInvalidOrder, err)
	}

	items := make([]interfaces.CreateOrderItemCommand, len(msg.Items))
	for i, item := range msg.Items {
		items[i] = interfaces.CreateOrderItemCommand{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}

	_, err := h.service.CreateOrder(ctx, interfaces.CreateOrderCommand{
		ServiceType:   msg.ServiceType,
		TableRef:      msg.TableRef,
		Items:         items,
		Total:         msg.Total,
		PaymentMethod: msg.PaymentMethod,
		Source:        intakeSource,
	})
	return err
}
